package chip8

// Hook receives a copy of the CPU registers
type Hook func(state CpuState)

// AddBeforeCycleHook adds a hook that runs before every cycle of the CPU
func (c *Console) AddBeforeCycleHook(h Hook) int {
	c.beforeCycleHooks = append(c.beforeCycleHooks, h)

	return len(c.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every cycle of the CPU
func (c *Console) AddAfterCycleHook(h Hook) int {
	c.afterCycleHooks = append(c.afterCycleHooks, h)

	return len(c.afterCycleHooks)
}

// AddAfterFrameHook adds a hook that runs after every frame is rendered
func (c *Console) AddAfterFrameHook(h Hook) int {
	c.afterFrameHooks = append(c.afterFrameHooks, h)

	return len(c.afterFrameHooks)
}

// AddErrorHook adds a hook that runs when the CPU halts on an error
func (c *Console) AddErrorHook(h Hook) int {
	c.errorHooks = append(c.errorHooks, h)

	return len(c.errorHooks)
}

func (c *Console) runHooks(hooks []Hook) {
	if len(hooks) == 0 {
		return
	}

	state := c.cpu.State()
	for _, h := range hooks {
		h(state)
	}
}
