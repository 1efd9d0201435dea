package skills

import (
	"context"

	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// seedSkill is one row of the static catalog SeedCatalog upserts before
// TagRepositories runs. The catalog is assumed as an input artifact per
// spec.md's open question; this concrete list covers the languages
// GitHub repositories in this domain are overwhelmingly written in, plus
// the frameworks and tools a GitHub language tag alone can't surface.
type seedSkill struct {
	name     string
	category string
	aliases  []string
}

var catalog = []seedSkill{
	{"Solidity", "language", []string{"sol"}},
	{"Rust", "language", nil},
	{"Go", "language", []string{"golang"}},
	{"TypeScript", "language", []string{"ts"}},
	{"JavaScript", "language", []string{"js", "node"}},
	{"Python", "language", []string{"py"}},
	{"Java", "language", nil},
	{"Kotlin", "language", nil},
	{"Swift", "language", nil},
	{"C++", "language", []string{"cpp", "c plus plus"}},
	{"C", "language", nil},
	{"C#", "language", []string{"csharp"}},
	{"Ruby", "language", nil},
	{"PHP", "language", nil},
	{"Haskell", "language", nil},
	{"Move", "language", nil},
	{"Cairo", "language", nil},
	{"Vyper", "language", nil},
	{"Clarity", "language", nil},
	{"Scala", "language", nil},
	{"Elixir", "language", nil},
	{"Shell", "language", []string{"bash", "sh"}},
	{"HCL", "language", []string{"terraform"}},
	{"Dockerfile", "language", nil},
	{"Solana Program Library", "framework", []string{"spl"}},
	{"Hardhat", "framework", nil},
	{"Foundry", "framework", []string{"forge"}},
	{"Anchor", "framework", nil},
	{"OpenZeppelin", "framework", []string{"oz"}},
	{"React", "framework", nil},
	{"Next.js", "framework", []string{"nextjs"}},
	{"Ethers.js", "framework", []string{"ethersjs", "ethers"}},
	{"web3.js", "framework", []string{"web3js"}},
	{"Docker", "tool", nil},
	{"Kubernetes", "tool", []string{"k8s"}},
	{"Terraform", "tool", nil},
	{"GraphQL", "tool", nil},
	{"The Graph Protocol", "tool", []string{"subgraph", "subgraphs"}},
	{"Smart Contracts", "domain", []string{"smart contract"}},
	{"DeFi", "domain", []string{"decentralized finance"}},
	{"NFTs", "domain", []string{"nft"}},
	{"Zero-Knowledge Proofs", "domain", []string{"zk", "zero knowledge", "zksnark", "zkproof"}},
	{"MEV", "domain", []string{"maximal extractable value"}},
	{"Layer 2 Scaling", "domain", []string{"l2", "rollup", "rollups"}},
}

// SeedCatalog upserts the static skills catalog. Idempotent: re-seeding
// only widens alias sets, per the Skill store's upsert contract.
func SeedCatalog(ctx context.Context, store storage.Store) (int, error) {
	log := logging.With("component", "skills_seed")
	n := 0
	for _, s := range catalog {
		aliases := make(models.StringSlice, len(s.aliases))
		copy(aliases, s.aliases)
		sk := &models.Skill{
			SkillName: s.name,
			Category:  s.category,
			Aliases:   aliases,
		}
		if _, err := store.UpsertSkill(ctx, sk); err != nil {
			return n, err
		}
		n++
	}
	log.Info("skills catalog seeded", "count", n)
	return n, nil
}
