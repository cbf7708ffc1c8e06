package hpack

// huffmanCodes is the canonical Huffman code table from RFC 7541 Appendix B,
// indexed by symbol (0-255 are byte values, 256 is the EOS marker).
var huffmanCodes = [257]huffmanCode{
	{code: 0x1ff8, n: 13},
	{code: 0x7fffd8, n: 23},
	{code: 0xfffffe2, n: 28},
	{code: 0xfffffe3, n: 28},
	{code: 0xfffffe4, n: 28},
	{code: 0xfffffe5, n: 28},
	{code: 0xfffffe6, n: 28},
	{code: 0xfffffe7, n: 28},
	{code: 0xfffffe8, n: 28},
	{code: 0xffffea, n: 24},
	{code: 0x3ffffffc, n: 30},
	{code: 0xfffffe9, n: 28},
	{code: 0xfffffea, n: 28},
	{code: 0x3ffffffd, n: 30},
	{code: 0xfffffeb, n: 28},
	{code: 0xfffffec, n: 28},
	{code: 0xfffffed, n: 28},
	{code: 0xfffffee, n: 28},
	{code: 0xfffffef, n: 28},
	{code: 0xffffff0, n: 28},
	{code: 0xffffff1, n: 28},
	{code: 0xffffff2, n: 28},
	{code: 0x3ffffffe, n: 30},
	{code: 0xffffff3, n: 28},
	{code: 0xffffff4, n: 28},
	{code: 0xffffff5, n: 28},
	{code: 0xffffff6, n: 28},
	{code: 0xffffff7, n: 28},
	{code: 0xffffff8, n: 28},
	{code: 0xffffff9, n: 28},
	{code: 0xffffffa, n: 28},
	{code: 0xffffffb, n: 28},
	{code: 0x14, n: 6},
	{code: 0x3f8, n: 10},
	{code: 0x3f9, n: 10},
	{code: 0xffa, n: 12},
	{code: 0x1ff9, n: 13},
	{code: 0x15, n: 6},
	{code: 0xf8, n: 8},
	{code: 0x7fa, n: 11},
	{code: 0x3fa, n: 10},
	{code: 0x3fb, n: 10},
	{code: 0xf9, n: 8},
	{code: 0x7fb, n: 11},
	{code: 0xfa, n: 8},
	{code: 0x16, n: 6},
	{code: 0x17, n: 6},
	{code: 0x18, n: 6},
	{code: 0x0, n: 5},
	{code: 0x1, n: 5},
	{code: 0x2, n: 5},
	{code: 0x19, n: 6},
	{code: 0x1a, n: 6},
	{code: 0x1b, n: 6},
	{code: 0x1c, n: 6},
	{code: 0x1d, n: 6},
	{code: 0x1e, n: 6},
	{code: 0x1f, n: 6},
	{code: 0x5c, n: 7},
	{code: 0xfb, n: 8},
	{code: 0x7ffc, n: 15},
	{code: 0x20, n: 6},
	{code: 0xffb, n: 12},
	{code: 0x3fc, n: 10},
	{code: 0x1ffa, n: 13},
	{code: 0x21, n: 6},
	{code: 0x5d, n: 7},
	{code: 0x5e, n: 7},
	{code: 0x5f, n: 7},
	{code: 0x60, n: 7},
	{code: 0x61, n: 7},
	{code: 0x62, n: 7},
	{code: 0x63, n: 7},
	{code: 0x64, n: 7},
	{code: 0x65, n: 7},
	{code: 0x66, n: 7},
	{code: 0x67, n: 7},
	{code: 0x68, n: 7},
	{code: 0x69, n: 7},
	{code: 0x6a, n: 7},
	{code: 0x6b, n: 7},
	{code: 0x6c, n: 7},
	{code: 0x6d, n: 7},
	{code: 0x6e, n: 7},
	{code: 0x6f, n: 7},
	{code: 0x70, n: 7},
	{code: 0x71, n: 7},
	{code: 0x72, n: 7},
	{code: 0xfc, n: 8},
	{code: 0x73, n: 7},
	{code: 0xfd, n: 8},
	{code: 0x1ffb, n: 13},
	{code: 0x7fff0, n: 19},
	{code: 0x1ffc, n: 13},
	{code: 0x3ffc, n: 14},
	{code: 0x22, n: 6},
	{code: 0x7ffd, n: 15},
	{code: 0x3, n: 5},
	{code: 0x23, n: 6},
	{code: 0x4, n: 5},
	{code: 0x24, n: 6},
	{code: 0x5, n: 5},
	{code: 0x25, n: 6},
	{code: 0x26, n: 6},
	{code: 0x27, n: 6},
	{code: 0x6, n: 5},
	{code: 0x74, n: 7},
	{code: 0x75, n: 7},
	{code: 0x28, n: 6},
	{code: 0x29, n: 6},
	{code: 0x2a, n: 6},
	{code: 0x7, n: 5},
	{code: 0x2b, n: 6},
	{code: 0x76, n: 7},
	{code: 0x2c, n: 6},
	{code: 0x8, n: 5},
	{code: 0x9, n: 5},
	{code: 0x2d, n: 6},
	{code: 0x77, n: 7},
	{code: 0x78, n: 7},
	{code: 0x79, n: 7},
	{code: 0x7a, n: 7},
	{code: 0x7b, n: 7},
	{code: 0x7ffe, n: 15},
	{code: 0x7fc, n: 11},
	{code: 0x3ffd, n: 14},
	{code: 0x1ffd, n: 13},
	{code: 0xffffffc, n: 28},
	{code: 0xfffe6, n: 20},
	{code: 0x3fffd2, n: 22},
	{code: 0xfffe7, n: 20},
	{code: 0xfffe8, n: 20},
	{code: 0x3fffd3, n: 22},
	{code: 0x3fffd4, n: 22},
	{code: 0x3fffd5, n: 22},
	{code: 0x7fffd9, n: 23},
	{code: 0x3fffd6, n: 22},
	{code: 0x7fffda, n: 23},
	{code: 0x7fffdb, n: 23},
	{code: 0x7fffdc, n: 23},
	{code: 0x7fffdd, n: 23},
	{code: 0x7fffde, n: 23},
	{code: 0xffffeb, n: 24},
	{code: 0x7fffdf, n: 23},
	{code: 0xffffec, n: 24},
	{code: 0xffffed, n: 24},
	{code: 0x3fffd7, n: 22},
	{code: 0x7fffe0, n: 23},
	{code: 0xffffee, n: 24},
	{code: 0x7fffe1, n: 23},
	{code: 0x7fffe2, n: 23},
	{code: 0x7fffe3, n: 23},
	{code: 0x7fffe4, n: 23},
	{code: 0x1fffdc, n: 21},
	{code: 0x3fffd8, n: 22},
	{code: 0x7fffe5, n: 23},
	{code: 0x3fffd9, n: 22},
	{code: 0x7fffe6, n: 23},
	{code: 0x7fffe7, n: 23},
	{code: 0xffffef, n: 24},
	{code: 0x3fffda, n: 22},
	{code: 0x1fffdd, n: 21},
	{code: 0xfffe9, n: 20},
	{code: 0x3fffdb, n: 22},
	{code: 0x3fffdc, n: 22},
	{code: 0x7fffe8, n: 23},
	{code: 0x7fffe9, n: 23},
	{code: 0x1fffde, n: 21},
	{code: 0x7fffea, n: 23},
	{code: 0x3fffdd, n: 22},
	{code: 0x3fffde, n: 22},
	{code: 0xfffff0, n: 24},
	{code: 0x1fffdf, n: 21},
	{code: 0x3fffdf, n: 22},
	{code: 0x7fffeb, n: 23},
	{code: 0x7fffec, n: 23},
	{code: 0x1fffe0, n: 21},
	{code: 0x1fffe1, n: 21},
	{code: 0x3fffe0, n: 22},
	{code: 0x1fffe2, n: 21},
	{code: 0x7fffed, n: 23},
	{code: 0x3fffe1, n: 22},
	{code: 0x7fffee, n: 23},
	{code: 0x7fffef, n: 23},
	{code: 0xfffea, n: 20},
	{code: 0x3fffe2, n: 22},
	{code: 0x3fffe3, n: 22},
	{code: 0x3fffe4, n: 22},
	{code: 0x7ffff0, n: 23},
	{code: 0x3fffe5, n: 22},
	{code: 0x3fffe6, n: 22},
	{code: 0x7ffff1, n: 23},
	{code: 0x3ffffe0, n: 26},
	{code: 0x3ffffe1, n: 26},
	{code: 0xfffeb, n: 20},
	{code: 0x7fff1, n: 19},
	{code: 0x3fffe7, n: 22},
	{code: 0x7ffff2, n: 23},
	{code: 0x3fffe8, n: 22},
	{code: 0x1ffffec, n: 25},
	{code: 0x3ffffe2, n: 26},
	{code: 0x3ffffe3, n: 26},
	{code: 0x3ffffe4, n: 26},
	{code: 0x7ffffde, n: 27},
	{code: 0x7ffffdf, n: 27},
	{code: 0x3ffffe5, n: 26},
	{code: 0xfffff1, n: 24},
	{code: 0x1ffffed, n: 25},
	{code: 0x7fff2, n: 19},
	{code: 0x1fffe3, n: 21},
	{code: 0x3ffffe6, n: 26},
	{code: 0x7ffffe0, n: 27},
	{code: 0x7ffffe1, n: 27},
	{code: 0x3ffffe7, n: 26},
	{code: 0x7ffffe2, n: 27},
	{code: 0xfffff2, n: 24},
	{code: 0x1fffe4, n: 21},
	{code: 0x1fffe5, n: 21},
	{code: 0x3ffffe8, n: 26},
	{code: 0x3ffffe9, n: 26},
	{code: 0xffffffd, n: 28},
	{code: 0x7ffffe3, n: 27},
	{code: 0x7ffffe4, n: 27},
	{code: 0x7ffffe5, n: 27},
	{code: 0xfffec, n: 20},
	{code: 0xfffff3, n: 24},
	{code: 0xfffed, n: 20},
	{code: 0x1fffe6, n: 21},
	{code: 0x3fffe9, n: 22},
	{code: 0x1fffe7, n: 21},
	{code: 0x1fffe8, n: 21},
	{code: 0x7ffff3, n: 23},
	{code: 0x3fffea, n: 22},
	{code: 0x3fffeb, n: 22},
	{code: 0x1ffffee, n: 25},
	{code: 0x1ffffef, n: 25},
	{code: 0xfffff4, n: 24},
	{code: 0xfffff5, n: 24},
	{code: 0x3ffffea, n: 26},
	{code: 0x7ffff4, n: 23},
	{code: 0x3ffffeb, n: 26},
	{code: 0x7ffffe6, n: 27},
	{code: 0x3ffffec, n: 26},
	{code: 0x3ffffed, n: 26},
	{code: 0x7ffffe7, n: 27},
	{code: 0x7ffffe8, n: 27},
	{code: 0x7ffffe9, n: 27},
	{code: 0x7ffffea, n: 27},
	{code: 0x7ffffeb, n: 27},
	{code: 0xffffffe, n: 28},
	{code: 0x7ffffec, n: 27},
	{code: 0x7ffffed, n: 27},
	{code: 0x7ffffee, n: 27},
	{code: 0x7ffffef, n: 27},
	{code: 0x7fffff0, n: 27},
	{code: 0x3ffffee, n: 26},
	{code: 0x3fffffff, n: 30},
}
