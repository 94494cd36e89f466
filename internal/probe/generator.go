package probe

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

var (
	positions = []string{"Manager", "Supervisor", "Staff"}
	workModes = []string{"Onsite", "Hybrid", "Remote"}
)

// Attribute ranges of generated employees.
const (
	minPerformance = 1
	maxPerformance = 5
	minAttendance  = 15
	maxAttendance  = 25
	maxProjects    = 20
	maxYears       = 15
)

// Generate returns n employees drawn from a PCG source seeded with seed.
// Identifiers are random UUIDs; the attributes depend only on the seed.
func Generate(n int, seed uint64) []Employee {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Employee, n)
	for i := range out {
		out[i] = Employee{
			EmployeeID:       uuid.NewString(),
			JobPosition:      positions[rng.IntN(len(positions))],
			WorkMode:         workModes[rng.IntN(len(workModes))],
			PerformanceScore: minPerformance + rng.IntN(maxPerformance-minPerformance+1),
			AttendanceCount:  minAttendance + rng.IntN(maxAttendance-minAttendance+1),
			ProjectCompleted: rng.IntN(maxProjects + 1),
			YearsOfService:   rng.IntN(maxYears + 1),
		}
	}
	return out
}

// batches splits records into consecutive chunks of at most size.
func batches(records []Employee, size int) [][]Employee {
	if size <= 0 {
		size = len(records)
	}
	var out [][]Employee
	for start := 0; start < len(records); start += size {
		out = append(out, records[start:min(start+size, len(records))])
	}
	return out
}
