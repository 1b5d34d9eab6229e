// Package gemini transcribes and analyzes media through the Gemini file and
// content generation APIs.
package gemini
