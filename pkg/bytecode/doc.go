// Package bytecode lowers a parsed LOLCODE program to a flat instruction
// stream and executes it on a stack virtual machine.
//
// # Architecture Overview
//
//   - Opcodes: one-byte instructions grouped by category. Slot, constant,
//     list and pop instructions come in a u8 form and a u24 "Long" form;
//     the compiler always picks the narrowest. Jumps carry a signed 32-bit
//     little-endian offset relative to their first operand byte.
//
//   - Chunk: code bytes, one source span per byte, the constant pool and
//     the interned names. Chunks encode to the "LOLC" format (a magic, a
//     u16 version and a canonical CBOR body) for .lolc files and the cache.
//
//   - Compiler: walks the AST once. Locals live on the operand stack: a
//     declaration leaves its value in place as a new slot and scope exit
//     pops every slot the scope declared.
//
//   - VM: a fetch/decode/dispatch loop over a single value stack. Each call
//     pushes a CallFrame whose Base is the stack index of parameter 0; the
//     callee sits just below it. IT is saved and reset per call.
//
// # Example
//
//	prog, err := compiler.Parse(src, 0, interner)
//	chunk, err := bytecode.Compile(prog, interner)
//	err = bytecode.Run(chunk, os.Stdout, os.Stdin)
package bytecode
