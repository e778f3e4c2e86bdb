package reviewq

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotCertified matches a [*CertificationError] with [errors.Is].
var ErrNotCertified = errors.New("not certified")

// ErrNoProjects is returned when the project queue is empty.
var ErrNoProjects = errors.New("at least one project is required")

// CertificationError lists requested projects the reviewer is not certified
// for.
type CertificationError struct {
	// Projects holds the offending ids, sorted and without duplicates.
	Projects []int
}

func (e *CertificationError) Error() string {
	ids := make([]string, len(e.Projects))
	for i, id := range e.Projects {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("not certified for project(s) %s", strings.Join(ids, ", "))
}

// Is reports whether target is [ErrNotCertified].
func (e *CertificationError) Is(target error) bool {
	return target == ErrNotCertified
}

// ValidateProjects checks that queue is non-empty and every id in it is in
// certified. All offending ids are reported in one [*CertificationError].
func ValidateProjects(queue, certified []int) error {
	if len(queue) == 0 {
		return ErrNoProjects
	}

	allowed := make(map[int]struct{}, len(certified))
	for _, id := range certified {
		allowed[id] = struct{}{}
	}

	missing := make(map[int]struct{})
	for _, id := range queue {
		if _, ok := allowed[id]; !ok {
			missing[id] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ids := make([]int, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return &CertificationError{Projects: ids}
}
