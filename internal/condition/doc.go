// Package condition turns compiled query tokens into queryir predicates.
//
// Each specifier kind of a token (word, lemma, part-of-speech, transcript,
// gloss) is matched against the resource feature the schema designates
// for it, under the alias of that feature's table at the token position.
// The builder records which tables its predicates touch so the planner
// can join them.
//
// Operators follow the shape of the specifier list:
//
//	one literal            col = ?
//	several literals       col IN (?, ?)
//	wildcards              col LIKE ? OR ... OR col IN (...)
//	regex mode             col REGEXP ? OR ...
//
// A negated token with a single predicate flips its operator (<>, NOT IN,
// NOT LIKE). With several predicates the conjunction is wrapped in NOT.
//
// Lemmatized tokens match the lemma column against the lemmas of every
// word form that satisfies the word specifiers:
//
//	COQ_LEMMA_1.Lemma IN (SELECT DISTINCT SUB_LEMMA_1.Lemma FROM ... WHERE <word condition>)
package condition
