// Package secondlevel suggests corrections from a corpus of known-good text
// when the trained dictionary has nothing trusted to offer.
//
// The corpus is an Index built by a CorpusFactory from the dictionary's
// self-confirming suggestions. An NgramTokenSuggester proposes replacements
// for single tokens, and a PhraseSuggester combines them, enumerating token
// choices with Combinations and keeping the ones the index confirms.
package secondlevel
