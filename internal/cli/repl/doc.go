// Package repl runs rollcall-cli commands interactively.
//
// Each line is split into arguments (single and double quotes group words)
// and handed to an Executor. A trailing '?' lists the commands starting with
// the text before it. History persists between sessions.
package repl
