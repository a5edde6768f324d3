// Package fpgrowth mines frequent itemsets from transaction collections
// using the FP-Growth algorithm: transactions compress into a shared prefix
// tree with per-item neighbor chains, and the tree is mined recursively
// through conditional subtrees instead of generating candidate itemsets.
//
// The smallest useful surface is a Miner:
//
//	miner, err := fpgrowth.NewMiner[string](2)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := miner.Mine([][]string{
//		{"a", "c", "e", "b", "f"},
//		{"a", "c", "g"},
//		{"e"},
//	})
//	for _, p := range result.SortedBySupport() {
//		fmt.Println(p.Items, p.Support)
//	}
//
// Loader converts external sources (JSON streams, record rows, struct
// slices, SQL result sets) into transactions, and Manager exposes named
// collections with cached mining over HTTP.
package fpgrowth
