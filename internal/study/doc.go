// Package study turns a topic into study material: an explanation, a story,
// flashcards, multiple-choice questions and keywords.
//
// Service renders prompts, sends them through a Generator, recovers JSON from
// the replies with package sanitize, validates each item and caches complete
// results in a cache.Store.
package study
