// Package chatgpt implements a client for the browser-session
// conversation API: streaming prompts, conversation position tracking
// with rollback, and conversation management calls.
package chatgpt
