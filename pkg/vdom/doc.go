// Package vdom builds element trees that the render package turns into
// markup.
//
// There is no diffing: every render produces a fresh tree and the whole
// root is replaced. Trees are built with element constructors that accept
// attributes, children and text in any order:
//
//	Div(Class("product-card"), Data("product-id", p.ID),
//	    Img(Src(p.Image), Alt(p.Title)),
//	    H3(Text(p.Title)),
//	    If(p.Brand != "", P(Text(p.Brand))),
//	)
package vdom
