// Package astribank opens an Astribank unit by bus path and hands out its
// two interfaces: the XPP data interface (0), used by the echo canceller
// loader, and the MPP management interface (1).
package astribank
