// Package carrier implements the reversible transforms between an opaque
// byte payload and its carrier representations: a grayscale pixel grid
// rendered as PNG, an 8-bit mono waveform rendered as WAV, and lowercase
// hex text with optional fixed-size chunking.
//
// Every codec is pure and stateless; decode(encode(p)) == p holds for
// every kind and every payload length, including zero. Containers carry
// the payload length as metadata because some renderings (the pixel
// grid) pad to a rectangle and are otherwise ambiguous.
package carrier
