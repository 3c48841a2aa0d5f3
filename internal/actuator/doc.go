// Package actuator turns controller outputs into CAN command frames.
//
// A Signal describes a scaled, signed little-endian field inside an
// 8-byte classic CAN payload. An Encoder places one command value into
// that field of a frame with a fixed identifier, and a Sink hooks an
// Encoder onto a running loop so every tick emits a frame.
package actuator
