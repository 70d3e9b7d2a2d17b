package service

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// ClassroomAssigner picks a classroom for each prioritized section of a decided application.
type ClassroomAssigner interface {
	// Assign returns one classroom per input key.
	Assign(keys []uint) map[uint]string
}

// RandomClassroomAssigner draws room numbers that are distinct within one application. Rooms
// are random three digit numbers until those run out.
type RandomClassroomAssigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomClassroomAssigner constructs an assigner. A nil source seeds from the clock.
func NewRandomClassroomAssigner(source rand.Source) *RandomClassroomAssigner {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &RandomClassroomAssigner{rng: rand.New(source)}
}

const (
	minClassroom = 100
	maxClassroom = 999
)

func (a *RandomClassroomAssigner) Assign(keys []uint) map[uint]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	assigned := make(map[uint]string, len(keys))
	used := make(map[int]struct{}, len(keys))
	capacity := maxClassroom - minClassroom + 1

	for _, key := range keys {
		var number int
		if len(used) < capacity {
			number = minClassroom + a.rng.Intn(capacity)
			for {
				if _, taken := used[number]; !taken {
					break
				}
				number = minClassroom + a.rng.Intn(capacity)
			}
		} else {
			// Three digit rooms are exhausted; continue with sequential four digit rooms.
			number = maxClassroom + 1 + len(used) - capacity
		}
		used[number] = struct{}{}
		assigned[key] = strconv.Itoa(number)
	}

	return assigned
}
