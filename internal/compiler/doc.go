// Package compiler turns CUE corpus resource declarations into schema
// descriptions.
//
// A resource is declared under the top-level "resource" field:
//
//	resource: demo: {
//		db_name: "demo"
//		tables: {
//			corpus: {
//				table: "Corpus"
//				features: {
//					id:      "ID"
//					word_id: "WordId"
//				}
//			}
//			word: {
//				table: "Lexicon"
//				features: {
//					id:    "WordId"
//					label: {column: "Word", label: "Word"}
//				}
//			}
//		}
//		query: word: "word_label"
//	}
//
// Tables and features keep their declaration order; table path search
// depends on it.
package compiler
