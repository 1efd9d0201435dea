// Package graph mirrors the relational talent graph (persons,
// collaboration edges, and person-skill evidence) into Neo4j for
// traversal queries the relational schema can't answer cheaply —
// shortest path between two contributors, K-hop collaborator
// expansion, skill-weighted subgraph extraction.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ckerr6/talentgraph/internal/models"
)

// Mirror writes idempotent MERGE statements against a Neo4j database,
// one Person node per person, one COLLABORATES_WITH relationship per
// collaboration edge, and one HAS_SKILL relationship per person-skill
// evidence row.
type Mirror struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewMirror connects to uri and verifies connectivity.
func NewMirror(ctx context.Context, uri, username, password, database string) (*Mirror, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Mirror{driver: driver, database: database}, nil
}

func (m *Mirror) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}

func (m *Mirror) session(ctx context.Context) neo4j.SessionWithContext {
	return m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
}

// UpsertPerson merges one Person node, keyed on its relational id.
func (m *Mirror) UpsertPerson(ctx context.Context, p *models.Person) error {
	session := m.session(ctx)
	defer session.Close(ctx)

	query := `
		MERGE (p:Person {id: $id})
		SET p.full_name = $fullName,
		    p.location = $location,
		    p.headline = $headline,
		    p.linkedin_url = $linkedinURL`

	params := map[string]any{
		"id":          p.ID,
		"fullName":    p.FullName,
		"location":    p.Location,
		"headline":    p.Headline,
		"linkedinURL": p.NormalizedLinkedInURL,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("merge person %s: %w", p.ID, err)
	}
	return nil
}

// UpsertCollaborationEdge merges a COLLABORATES_WITH relationship
// between the edge's two persons. Both endpoints are merged as bare
// Person stubs first, so an edge can sync ahead of a person record
// that hasn't reached Neo4j yet; UpsertPerson fills in the rest of the
// node's properties whenever that person's row is mirrored.
func (m *Mirror) UpsertCollaborationEdge(ctx context.Context, e *models.CollaborationEdge) error {
	session := m.session(ctx)
	defer session.Close(ctx)

	query := `
		MERGE (src:Person {id: $srcID})
		MERGE (dst:Person {id: $dstID})
		MERGE (src)-[r:COLLABORATES_WITH]->(dst)
		SET r.shared_repos = $sharedRepos,
		    r.shared_contributions = $sharedContributions,
		    r.collaboration_months = $collaborationMonths,
		    r.strength = $strength`

	var strength any
	if e.CollaborationStrength != nil {
		strength = *e.CollaborationStrength
	}

	params := map[string]any{
		"srcID":                e.SrcPersonID,
		"dstID":                e.DstPersonID,
		"sharedRepos":          e.SharedRepos,
		"sharedContributions":  e.SharedContributions,
		"collaborationMonths":  e.CollaborationMonths,
		"strength":             strength,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("merge collaboration edge %s->%s: %w", e.SrcPersonID, e.DstPersonID, err)
	}
	return nil
}

// UpsertPersonSkill merges a HAS_SKILL relationship from a person to a
// Skill node (keyed on the relational skill id; skillName carries the
// label since PersonSkill itself only stores the foreign key).
func (m *Mirror) UpsertPersonSkill(ctx context.Context, ps *models.PersonSkill, skillName string) error {
	session := m.session(ctx)
	defer session.Close(ctx)

	query := `
		MERGE (p:Person {id: $personID})
		MERGE (s:Skill {id: $skillID})
		SET s.name = $skillName
		MERGE (p)-[r:HAS_SKILL]->(s)
		SET r.proficiency_score = $proficiency,
		    r.confidence_score = $confidence,
		    r.repos_using_skill = $reposUsingSkill`

	params := map[string]any{
		"personID":        ps.PersonID,
		"skillID":         ps.SkillID,
		"skillName":       skillName,
		"proficiency":     ps.ProficiencyScore,
		"confidence":      ps.ConfidenceScore,
		"reposUsingSkill": ps.ReposUsingSkill,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("merge person skill %s/%s: %w", ps.PersonID, ps.SkillID, err)
	}
	return nil
}
