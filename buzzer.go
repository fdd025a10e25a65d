package chip8

// Buzzer follows the sound timer: Play is called when it becomes active
// and Stop when it reaches zero. It does not generate any sound by itself.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

type DummyBuzzer struct {
	IsPlaying bool
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{
		IsPlaying: false,
	}
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}

// updateBuzzer starts or stops the buzzer to match the sound timer. c.mu must be held.
func (c *Console) updateBuzzer() {
	active := c.cpu.IsSoundTimerActive()
	if active == c.isBuzzing {
		return
	}

	c.isBuzzing = active
	if active {
		c.Buzzer.Play()
	} else {
		c.Buzzer.Stop()
	}
}
