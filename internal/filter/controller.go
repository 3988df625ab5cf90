package filter

import (
	"errors"
	"sync"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/schedule"
)

type Kind string

const (
	DepartTime Kind = "depart-time"
	ReturnTime Kind = "return-time"
	DepartDays Kind = "depart-days"
	ReturnDays Kind = "return-days"
)

// DefaultRemovalDelay is how long a deactivated filter stays visible while
// its removal animation plays.
const DefaultRemovalDelay = 300 * time.Millisecond

var (
	ErrUnknownKind  = errors.New("unknown filter kind")
	ErrInvalidRange = errors.New("hour range must satisfy 0 <= start < end <= 24")
)

var allDays = Weekdays{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case DepartTime, ReturnTime, DepartDays, ReturnDays:
		return k, nil
	}
	return "", ErrUnknownKind
}

func (k Kind) isRange() bool {
	return k == DepartTime || k == ReturnTime
}

// Controller keeps the active filter set and sort key for one results view.
// Values are retained while a filter is inactive, so toggling it back on
// restores the user's last choice.
type Controller struct {
	mu           sync.Mutex
	ranges       map[Kind]HourRange
	days         map[Kind]Weekdays
	active       map[Kind]bool
	visible      map[Kind]bool
	sort         models.SortKey
	sched        *schedule.Scheduler
	removalDelay time.Duration
	onChange     func(Filters)
}

func NewController(sched *schedule.Scheduler, removalDelay time.Duration, onChange func(Filters)) *Controller {
	if onChange == nil {
		onChange = func(Filters) {}
	}
	return &Controller{
		ranges: map[Kind]HourRange{
			DepartTime: {Start: 0, End: 24},
			ReturnTime: {Start: 0, End: 24},
		},
		days: map[Kind]Weekdays{
			DepartDays: append(Weekdays(nil), allDays...),
			ReturnDays: append(Weekdays(nil), allDays...),
		},
		active:       make(map[Kind]bool),
		visible:      make(map[Kind]bool),
		sort:         models.SortPrice,
		sched:        sched,
		removalDelay: removalDelay,
		onChange:     onChange,
	}
}

func (c *Controller) SetRange(kind Kind, r HourRange) error {
	if !kind.isRange() {
		return ErrUnknownKind
	}
	if !r.Valid() {
		return ErrInvalidRange
	}

	c.mu.Lock()
	c.ranges[kind] = r
	active := c.active[kind]
	filters := c.filtersLocked()
	c.mu.Unlock()

	if active {
		c.onChange(filters)
	}
	return nil
}

func (c *Controller) SetDays(kind Kind, days Weekdays) error {
	if kind != DepartDays && kind != ReturnDays {
		return ErrUnknownKind
	}
	if days == nil {
		days = Weekdays{}
	}

	c.mu.Lock()
	c.days[kind] = append(Weekdays{}, days...)
	active := c.active[kind]
	filters := c.filtersLocked()
	c.mu.Unlock()

	if active {
		c.onChange(filters)
	}
	return nil
}

// Toggle activates or deactivates a filter. The change callback fires
// immediately either way; a deactivated filter stays visible until the
// removal delay has passed.
func (c *Controller) Toggle(kind Kind, on bool) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.active[kind] == on {
		c.mu.Unlock()
		return nil
	}
	c.active[kind] = on
	if on {
		c.visible[kind] = true
	}
	filters := c.filtersLocked()
	c.mu.Unlock()

	key := "filter-hide:" + string(kind)
	if on {
		c.sched.Cancel(key)
	} else {
		c.sched.After(key, c.removalDelay, func() {
			c.mu.Lock()
			if !c.active[kind] {
				c.visible[kind] = false
			}
			c.mu.Unlock()
		})
	}

	c.onChange(filters)
	return nil
}

func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filtersLocked()
}

func (c *Controller) filtersLocked() Filters {
	var f Filters
	if c.active[DepartTime] {
		r := c.ranges[DepartTime]
		f.DepartTime = &r
	}
	if c.active[ReturnTime] {
		r := c.ranges[ReturnTime]
		f.ReturnTime = &r
	}
	if c.active[DepartDays] {
		f.DepartDays = append(Weekdays{}, c.days[DepartDays]...)
	}
	if c.active[ReturnDays] {
		f.ReturnDays = append(Weekdays{}, c.days[ReturnDays]...)
	}
	return f
}

func (c *Controller) Active(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[kind]
}

// Visible reports whether the filter's UI affordance should be shown.
func (c *Controller) Visible(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible[kind]
}

func (c *Controller) SetSort(key models.SortKey) {
	c.mu.Lock()
	c.sort = key
	c.mu.Unlock()
}

func (c *Controller) Sort() models.SortKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}
