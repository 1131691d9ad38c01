// Package prompts stores the user-editable example files that steer label
// style (subtask_prompt.txt, one example label per line) and question style
// (vqa_prompt.txt, question and answer on consecutive lines).
package prompts
