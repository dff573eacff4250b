package model

// MachineType is a fixed category of spinning-preparation machine. New kinds
// are added as constants here, never accepted as free text.
type MachineType string

const (
	MachineTypeCarding  MachineType = "Carding"
	MachineTypeBreaker  MachineType = "Breaker"
	MachineTypeUnilap   MachineType = "Unilap"
	MachineTypeComber   MachineType = "Comber"
	MachineTypeFinisher MachineType = "Finisher"
	MachineTypeRoving   MachineType = "Roving"
)

var machineTypes = []MachineType{
	MachineTypeCarding,
	MachineTypeBreaker,
	MachineTypeUnilap,
	MachineTypeComber,
	MachineTypeFinisher,
	MachineTypeRoving,
}

// MachineTypes returns the full type universe in process-flow order.
func MachineTypes() []MachineType {
	out := make([]MachineType, len(machineTypes))
	copy(out, machineTypes)
	return out
}

// ParseMachineType maps a raw name onto a known MachineType.
func ParseMachineType(raw string) (MachineType, bool) {
	for _, t := range machineTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t is a member of the type universe.
func (t MachineType) Valid() bool {
	_, ok := ParseMachineType(string(t))
	return ok
}
