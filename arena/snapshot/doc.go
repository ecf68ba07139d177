// Package snapshot copies arena files into a self-describing, optionally
// compressed byte stream and back.
//
// A snapshot is the whole file image (header page, bookkeeping block and
// arena data) behind a 25 byte header carrying the codec, both lengths and a
// CRC-32C of the image. Because every reference inside an arena is an
// offset, a restored file is usable as is at whatever address it is mapped.
//
//	f, _ := arena.Open("pool.arena")
//	var buf bytes.Buffer
//	snapshot.Save(f, &buf, snapshot.CodecZstd)
//
//	g, _ := snapshot.Restore(&buf, "copy.arena")
//	defer g.Close()
//
// LZ4 favours speed and zstd favours ratio. Either falls back to storing the
// image raw when it saves less than a tenth of the size.
package snapshot
