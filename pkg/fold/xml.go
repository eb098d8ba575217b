package fold

import (
	"strings"

	"jscore/pkg/ast"
	"jscore/pkg/lexer"
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	`"`, "&quot;",
	"\n", "&#xA;",
	"\r", "&#xD;",
	"\t", "&#x9;",
)

// xmlText returns the markup a constant XML fragment stands for.
func xmlText(pn *ast.Node, afterText bool) (string, bool) {
	if pn.Arity != ast.Nullary {
		return "", false
	}
	switch pn.Type {
	case lexer.XMLATTR:
		if !afterText {
			return "", false
		}
		return pn.Atom(), true
	case lexer.XMLNAME, lexer.XMLSPACE, lexer.XMLTEXT, lexer.STRING:
		return pn.Atom(), true
	case lexer.XMLCDATA:
		return "<![CDATA[" + pn.Atom() + "]]>", true
	case lexer.XMLCOMMENT:
		return "<!--" + pn.Atom() + "-->", true
	case lexer.XMLPI:
		if pn.Atom2() == "" {
			return "<?" + pn.Atom() + "?>", true
		}
		return "<?" + pn.Atom() + " " + pn.Atom2() + "?>", true
	}
	return "", false
}

// FoldXMLConstants joins each run of constant fragments in the XML list
// pn into one XMLTEXT node. Inside a start tag the fragments alternate
// between attribute names and values, and the joined text spells out the
// tag. A list left with a single node is replaced by it unless it is the
// root of an XML literal.
func FoldXMLConstants(a *ast.Arena, pn *ast.Node) {
	tt := pn.Type
	inTag := tt == lexer.XMLSTAGO || tt == lexer.XMLPTAGC

	var accum strings.Builder
	have := false
	if !pn.HasExtra(ast.CantFold) {
		switch tt {
		case lexer.XMLETAGO:
			accum.WriteString("</")
			have = true
		case lexer.XMLSTAGO, lexer.XMLPTAGC:
			accum.WriteString("<")
			have = true
		}
	}

	kids := pn.Elements()
	out := make([]*ast.Node, 0, len(kids))
	run := 0 // index of the first kid of the pending run
	j := 0   // fragments joined so far

	// flush replaces kids[run:end] with one text node holding the
	// accumulated markup.
	flush := func(end int) {
		if end == run {
			return
		}
		for _, k := range kids[run : end-1] {
			a.Recycle(k)
		}
		text := kids[end-1]
		text.MakeNullary(lexer.XMLTEXT, lexer.OpString)
		text.SetAtom(accum.String())
		out = append(out, text)
	}

	for i, k := range kids {
		str, ok := xmlText(k, have)
		if !ok {
			if inTag && (i&1)^(j&1) != 0 {
				// A name or value is missing its partner; keep the run.
				out = append(out, kids[run:i]...)
			} else {
				flush(i)
			}
			out = append(out, k)
			run = i + 1
			accum.Reset()
			have = false
			continue
		}

		if have {
			if inTag && i != 0 {
				if i&1 == 1 {
					accum.WriteByte(' ')
					accum.WriteString(str)
				} else {
					accum.WriteString(`="`)
					accum.WriteString(attrEscaper.Replace(str))
					accum.WriteByte('"')
				}
			} else {
				accum.WriteString(str)
			}
			j++
		} else {
			accum.WriteString(str)
		}
		have = true
	}

	lastRun := run < len(kids)
	if have && lastRun {
		if !pn.HasExtra(ast.CantFold) {
			switch tt {
			case lexer.XMLPTAGC:
				accum.WriteString("/>")
			case lexer.XMLSTAGO, lexer.XMLETAGO:
				accum.WriteString(">")
			}
		}
		flush(len(kids))
	}
	pn.SetElements(out)

	if lastRun && pn.Count() == 1 {
		if !pn.HasExtra(ast.XMLRoot) {
			k := pn.Head()
			ast.MoveNode(pn, k)
			a.Recycle(k)
		} else if tt == lexer.XMLPTAGC {
			pn.Type = lexer.XMLELEM
		}
	}
}
