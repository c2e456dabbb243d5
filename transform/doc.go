// Package transform turns JSX snippets into plain JavaScript.
//
// JSX is lowered to React.createElement calls by esbuild and a fixed
// prelude destructures the ambient hooks from the React parameter, so
// snippets can call useState and friends without importing them. Parser
// failures come back as *SyntaxError with esbuild's wording intact.
package transform
