// Package compiler provides the lexer, parser and LLVM IR generator for a
// small expression-oriented language with constants, let-bindings and loops.
//
// Pipeline: source → TokenStream → Parse → Generate → *ir.Module
package compiler
