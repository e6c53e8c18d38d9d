// Package deadreckoning predicts remote entity transforms between network
// updates and decides when a locally owned entity must publish a new one.
//
// Everything here is pure given its inputs: time only enters through the dt
// arguments, terrain only through a GroundQuery, and output only through the
// returned transforms. The package has no knowledge of the ECS, the transport
// or the renderer.
package deadreckoning
