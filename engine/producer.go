package engine

import "github.com/ScottSallinen/parconnect/comm"

// Producer is the external edge-list contract (spec §6): a callable the
// core invokes once at startup, on every rank, to obtain that rank's
// local slice of the block-distributed edge bag. Producers are OUT of
// core scope (Kronecker, de Bruijn, generic file, chain); the core only
// ever depends on this function type.
type Producer func(c *comm.Communicator) ([]Edge, error)

// Produce runs a Producer on this rank and wraps the result in an
// EdgeBus.
func Produce(c *comm.Communicator, p Producer) (*EdgeBus, error) {
	edges, err := p(c)
	if err != nil {
		return nil, err
	}
	return NewEdgeBus(c, edges), nil
}
