// Package token compiles query items into typed specifier lists.
//
// A query item describes one token position of a corpus query:
//
//	walk          word form
//	walk|walks    alternatives
//	wal*          wildcards: * any sequence, ? one character
//	[walk]        lemma (or part-of-speech, see below)
//	walk.[v*]     word form restricted to a part-of-speech
//	/wO:k/        transcript
//	"to walk"     gloss
//	~walk         negation (~~ cancels)
//	#walk         lemmatize: any form sharing a lemma with "walk"
//	walk{1,3}     quantifier: one to three consecutive tokens
//	\*            escaped literal character
//
// A bare bracket is a lemma specifier unless the injected part-of-speech
// predicate accepts every element, in which case it becomes a
// part-of-speech specifier. The predicate may hit the database; a Parser
// asks it at most once per distinct candidate.
//
// Wildcards are translated to SQL LIKE syntax while scanning. Literal %
// and _ are escaped with a backslash, so patterns must be matched with
// ESCAPE '\'. In regex mode specifiers are kept verbatim.
//
// Tokens are read-only after Parse. Expand may place the same *Token at
// several positions.
package token
