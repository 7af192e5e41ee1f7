package portalloc

import (
	"fmt"
	"log/slog"
	"net"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Assignment is the port pair given to one combination. The client port is
// the base candidate and the server port sits Offset above it.
type Assignment struct {
	Key    string
	Client int
	Server int
}

// Table holds the assignments of one Allocate pass in allocation order.
type Table struct {
	order []Assignment
	byKey map[string]Assignment
}

// Lookup returns the assignment recorded for a combination key.
func (t *Table) Lookup(key string) (Assignment, bool) {
	a, ok := t.byKey[key]
	return a, ok
}

// Assignments returns a copy of the assignments in allocation order.
func (t *Table) Assignments() []Assignment {
	return slices.Clone(t.order)
}

// Len returns the number of assignments.
func (t *Table) Len() int {
	return len(t.order)
}

// Allocator hands out collision-free port pairs to combinations.
//
// An Allocator is stateless between calls: every Allocate starts again at
// Base with an empty claimed set, so the same input always yields the same
// table.
type Allocator struct {
	Base      int
	Offset    int
	Increment int
	Max       int

	// Probe, when set, rejects candidate ports that are unusable on this
	// host. A rejected candidate is skipped like a claimed one.
	Probe func(port int) bool

	log *slog.Logger
}

// New returns an Allocator using the parameters in p.
// If logger is nil, slog.Default() is used.
func New(p config.PortAllocation, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{
		Base:      p.Base,
		Offset:    p.Offset,
		Increment: p.Increment,
		Max:       p.Max,
		log:       logger,
	}
}

// Allocate assigns a port pair to every combination.
//
// Combinations are processed in matrix order whatever order cs is in. For
// each one the candidate pair is (base, base+Offset); if either port is
// already claimed in this pass, or rejected by Probe, base advances by
// Increment and the pair is proposed again. Once accepted both ports join
// the claimed set and base advances for the next combination. The claimed
// set, not the base, decides collisions: with Offset larger than Increment
// a later base regularly lands on an earlier server port.
//
// ErrPortExhausted is returned when the server candidate would exceed Max.
func (a *Allocator) Allocate(cs []matrix.Combination) (*Table, error) {
	if a.Increment <= 0 || a.Offset <= 0 {
		return nil, fmt.Errorf("allocate ports: offset %d and increment %d must be positive: %w",
			a.Offset, a.Increment, sentinel.ErrConfig)
	}
	ordered := slices.Clone(cs)
	matrix.Sort(ordered)

	claimed := sets.New[int]()
	table := &Table{
		order: make([]Assignment, 0, len(ordered)),
		byKey: make(map[string]Assignment, len(ordered)),
	}

	base := a.Base
	for _, c := range ordered {
		key := c.Key()
		if _, dup := table.byKey[key]; dup {
			continue
		}
		for {
			client, server := base, base+a.Offset
			if server > a.Max {
				return nil, fmt.Errorf("allocate ports for %s: base %d with offset %d exceeds %d: %w",
					key, base, a.Offset, a.Max, sentinel.ErrPortExhausted)
			}
			if claimed.Has(client) || claimed.Has(server) || !a.usable(client) || !a.usable(server) {
				base += a.Increment
				continue
			}
			claimed.Insert(client, server)
			as := Assignment{Key: key, Client: client, Server: server}
			table.order = append(table.order, as)
			table.byKey[key] = as
			base += a.Increment
			a.log.Debug("assigned ports", "combination", key, "client", client, "server", server)
			break
		}
	}
	return table, nil
}

func (a *Allocator) usable(port int) bool {
	return a.Probe == nil || a.Probe(port)
}

// HostProbe reports whether port can currently be bound on the loopback
// interface. It is meant for Allocator.Probe when environments are started
// right after generation on the same host.
func HostProbe(port int) bool {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
