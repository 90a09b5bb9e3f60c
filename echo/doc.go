// Package echo loads the echo canceller DSP of an Astribank and bridges
// its register accesses onto the XPP interface.
//
// Register accesses are indirect: a write programs the address high and
// low registers, the data register and a control strobe, each as one SPI
// packet. Packets are batched in a Buffer and flushed when the next one
// would not fit or when a reply is needed, so reads cost a round trip and
// writes do not.
//
// The chip itself is opened through a ChipOpener, the hook for a DSP
// vendor SDK that drives the register contract in RegisterAccess.
package echo
