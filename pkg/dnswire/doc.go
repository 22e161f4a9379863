// Package dnswire implements the subset of the DNS wire format described in
// [RFC1035] that a stub forwarder needs: encoding a single-question query and
// decoding arbitrary responses, including compressed names.
//
// Decoding never trusts the input. Compression pointers may only point
// backwards, are never followed twice within a name, and every read is
// bounds-checked; a malformed buffer yields an error wrapping
// [ErrMalformedMessage], never a partial [Message].
//
// [RFC1035]: https://tools.ietf.org/html/rfc1035
package dnswire
