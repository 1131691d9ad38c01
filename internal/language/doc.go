// Package language maps the language options given to generation requests
// onto ISO 639-1 codes and the names written into prompts.
package language
