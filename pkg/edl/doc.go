// Package edl implements the engineering data link (EDL) command set: the
// uplink/downlink command schema and the binary codec for request and
// response payloads.
//
// A command's request and response are each an ordered field list. Lists
// with only fixed-width fields pack as a plain little-endian concatenation;
// lists containing a size-prefixed field pack sequentially with an explicit
// running offset. The codec carries no framing, checksum or HMAC — that is
// the transport layer's job.
package edl
