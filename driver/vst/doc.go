// Package vst implements the VelocyStream chunk framing layer.
//
// Every message is transmitted as one or more chunks. A chunk carries a
// 24 byte little-endian header followed by a contiguous piece of the
// message payload:
//
//	offset 0  : u32  length        // header + content
//	offset 4  : u32  chunkX        // (index<<1) | firstBit; the first
//	                               // chunk of a multi-chunk message
//	                               // carries (chunkCount<<1) | 1
//	offset 8  : u64  messageId
//	offset 16 : u64  messageLength // payload bytes of the whole message
//	offset 24 : content bytes
//
// Chunks of distinct messages may interleave arbitrarily on the stream;
// chunks of a single message arrive in ascending index order. The Receiver
// reassembles messages from the raw byte stream and hands completed
// payloads to its callback.
package vst
