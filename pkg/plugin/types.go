package plugin

// Type represents the functional category of a plugin.
type Type string

const (
	// TypeExecutor plugins contribute action executors to the registry.
	TypeExecutor Type = "executor"
	// TypeNotifier plugins deliver notifications to external channels.
	TypeNotifier Type = "notifier"
)

// Capability expresses optional features a plugin may request access to.
type Capability string

const (
	CapabilityFilesystem Capability = "filesystem"
	CapabilityNetwork    Capability = "network"
	CapabilityExecution  Capability = "execution"
)

// Info contains descriptive metadata for a plugin implementation.
type Info struct {
	ID           string
	Name         string
	Description  string
	Author       string
	Version      string
	Category     Type
	Capabilities []Capability
	// Kinds lists the action kinds this plugin claims to execute.
	Kinds []string
}

// State represents the lifecycle position of a plugin instance.
type State string

const (
	StateRegistered  State = "registered"
	StateInitialised State = "initialised"
	StateStarted     State = "started"
	StateStopped     State = "stopped"
)
