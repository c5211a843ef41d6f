package motor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrUnknownMotor = errors.New("unknown motor")

// Registry maps motor ids to their channels. It is never modified after
// NewRegistry returns, so it is safe to share.
type Registry struct {
	pairs map[ID]ChannelPair
	ids   []ID
}

// NewRegistry copies pairs into a new registry.
func NewRegistry(pairs map[ID]ChannelPair) *Registry {
	r := &Registry{pairs: make(map[ID]ChannelPair, len(pairs))}
	for id, p := range pairs {
		r.pairs[id] = p
		r.ids = append(r.ids, id)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	return r
}

// Lookup returns the channels of motor id.
func (r *Registry) Lookup(id ID) (ChannelPair, bool) {
	p, ok := r.pairs[id]
	return p, ok
}

func (r *Registry) Contains(id ID) bool {
	_, ok := r.pairs[id]
	return ok
}

// IDs returns the configured ids in ascending order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.ids))
	copy(out, r.ids)
	return out
}

// String formats the id set as "{1,2,3,4}".
func (r *Registry) String() string {
	parts := make([]string, len(r.ids))
	for i, id := range r.ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// CheckChannels reports the first motor whose channels a driver with n
// channels cannot address.
func (r *Registry) CheckChannels(n int) error {
	for _, id := range r.ids {
		p := r.pairs[id]
		if int(p.Speed) >= n || int(p.Direction) >= n {
			return fmt.Errorf("motor %d uses channels (%d,%d), driver has %d", id, p.Speed, p.Direction, n)
		}
	}
	return nil
}
