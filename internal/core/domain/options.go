package domain

// GlobalOptions are the per-invocation switches shared by every command.
type GlobalOptions struct {
	Mode       Mode
	Force      bool
	UID        *int   // explicit run-as user for exec
	WorkingDir string // exec working directory inside the container
	DryRun     bool
	NoTTY      bool
	Tag        string
	Debug      bool
}

// EffectiveMode returns the mode to apply, defaulting to ModeDefault.
func (o GlobalOptions) EffectiveMode() Mode {
	if o.Mode == "" {
		return ModeDefault
	}
	return o.Mode
}
