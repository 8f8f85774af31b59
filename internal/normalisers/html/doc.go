// Package html provides a Normaliser implementation for HTML documents.
// h1 to h6 elements label sections; paragraphs and list items are body text.
// Scripts, styles and the document head are skipped.
package html
