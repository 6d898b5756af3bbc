// # csv2jsonl: streaming CSV to JSON Lines
//
// csv2jsonl converts delimited text into newline-delimited JSON, one object per
// data row, holding no more than one row in memory. The first record names the
// object keys and their order.
//
// # Pipeline
//
//   - NewDecompressingReader detects gzip, zstd, LZ4 and S2/Snappy streams.
//   - NewDecodingReader transcodes UTF-8 and UTF-16 input that starts with a
//     byte order mark and passes everything else through unchanged.
//   - Reader tokenizes RFC 4180 records; Table pairs them with the header.
//   - Infer types each field as null, number or string.
//   - LineWriter renders each row as compact or indented JSON.
//
// Converter wires these together.
//
// # Type inference
//
// An empty field becomes null. A field becomes a number only when it is a JSON
// number whose canonical rendering is byte-identical to the field, so "007",
// "1e3", "+5" and "1.50" stay strings. NoInference disables both rules.
package csv2jsonl
