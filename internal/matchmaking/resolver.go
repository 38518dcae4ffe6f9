package matchmaking

import (
	"context"
	"errors"

	"campusmatch/backend/internal/models"

	"gorm.io/gorm"
)

// Outcome classifies what a like event resulted in.
type Outcome string

const (
	// OutcomeAlreadyMatched: the two parties were already connected by a match.
	OutcomeAlreadyMatched Outcome = "ALREADY_MATCHED"
	// OutcomeNewMatch: mutual interest was detected and a match was created.
	OutcomeNewMatch Outcome = "NEW_MATCH"
	// OutcomeSameMatch: a pre-existing match is re-surfaced instead of duplicated.
	OutcomeSameMatch Outcome = "SAME_MATCH"
	// OutcomeLike: no match condition reached, the like was recorded only.
	OutcomeLike Outcome = "LIKE"
)

// Origin identifies which side of a match acted through group context.
type Origin string

const (
	OriginNeither Origin = "NEITHER"
	OriginLiked   Origin = "LIKED"
	OriginCurrent Origin = "CURRENT"
	OriginBoth    Origin = "BOTH"
)

// TargetKind distinguishes what a like was aimed at.
type TargetKind string

const (
	TargetProfile TargetKind = "profile"
	TargetGroup   TargetKind = "group"
)

// Target identifies the liked party.
type Target struct {
	Kind TargetKind
	ID   uint
}

// Result is the classified outcome of a like event.
type Result struct {
	Outcome Outcome
	Origin  Origin
	Match   *models.Match

	// LikeRecorded is true when this invocation inserted the like edge,
	// false when the edge already existed.
	LikeRecorded bool
}

// topology is the static shape of a like event: whether each party is
// standalone or group-affiliated.
type topology int

const (
	individualToIndividual topology = iota
	individualToGroup
	groupToIndividual
	groupToGroup
)

// Resolver is the match-resolution engine. Each invocation reads current
// graph/ledger state inside one transaction, records the like, and decides
// whether a match must be created, re-surfaced, or already exists.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a resolver bound to the given DB connection.
func NewResolver(database *gorm.DB) *Resolver {
	return &Resolver{db: database}
}

// Resolve processes a like event from liker toward target and returns the
// classified outcome.
//
// If the target no longer exists the call fails with ErrNotFound and nothing
// is written: the transaction rolls back, so not even the like edge survives.
// A duplicate-match race never surfaces; the losing side observes the row the
// winner created.
func (r *Resolver) Resolve(ctx context.Context, likerID uint, target Target) (*Result, error) {
	var result *Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := resolveInTx(ctx, tx, likerID, target)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func resolveInTx(ctx context.Context, tx *gorm.DB, likerID uint, target Target) (*Result, error) {
	graph := NewIdentityGraph(tx)
	ledger := NewMatchLedger(tx)

	var liker models.Profile
	if err := tx.First(&liker, likerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	likerGroup, err := graph.GroupOf(ctx, likerID)
	if err != nil {
		return nil, err
	}

	// A group never likes itself; the members would become candidates of
	// their own like and a profile would match with itself.
	if target.Kind == TargetGroup && likerGroup != nil && likerGroup.ID == target.ID {
		return nil, ErrPreconditionNotMet
	}

	switch classify(likerGroup, target.Kind) {
	case individualToIndividual:
		return resolveIndividualToIndividual(ctx, graph, ledger, likerID, target.ID)
	case individualToGroup:
		return resolveIndividualToGroup(ctx, tx, graph, ledger, likerID, target.ID)
	case groupToIndividual:
		return resolveGroupToIndividual(ctx, tx, graph, ledger, likerID, likerGroup, target.ID)
	default:
		return resolveGroupToGroup(ctx, tx, graph, ledger, likerID, likerGroup, target.ID)
	}
}

func classify(likerGroup *models.Group, kind TargetKind) topology {
	switch {
	case likerGroup == nil && kind == TargetProfile:
		return individualToIndividual
	case likerGroup == nil && kind == TargetGroup:
		return individualToGroup
	case likerGroup != nil && kind == TargetProfile:
		return groupToIndividual
	default:
		return groupToGroup
	}
}

// resolveIndividualToIndividual handles a standalone profile liking another
// standalone profile.
func resolveIndividualToIndividual(ctx context.Context, graph *IdentityGraph, ledger *MatchLedger, likerID, targetID uint) (*Result, error) {
	if err := requireProfile(graph.db, targetID); err != nil {
		return nil, err
	}
	recorded, err := graph.RecordProfileLike(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}

	mutual, err := graph.HasLiked(ctx, targetID, likerID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return &Result{Outcome: OutcomeLike, LikeRecorded: recorded}, nil
	}

	// A blocked pair never matches, no matter what likes say.
	blocked, err := graph.IsBlockedEitherWay(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return &Result{Outcome: OutcomeLike, LikeRecorded: recorded}, nil
	}

	existing, err := ledger.FindMatch(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Outcome: OutcomeAlreadyMatched, Match: existing, LikeRecorded: recorded}, nil
	}

	match, created, err := ledger.CreateMatch(ctx, likerID, targetID, nil)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a concurrent race; the row already settled.
		return &Result{Outcome: OutcomeAlreadyMatched, Match: match, LikeRecorded: recorded}, nil
	}
	return &Result{Outcome: OutcomeNewMatch, Origin: OriginNeither, Match: match, LikeRecorded: recorded}, nil
}

// resolveIndividualToGroup handles a standalone profile liking a group.
func resolveIndividualToGroup(ctx context.Context, tx *gorm.DB, graph *IdentityGraph, ledger *MatchLedger, likerID, groupID uint) (*Result, error) {
	group, members, err := requireGroupWithMembers(ctx, tx, graph, groupID)
	if err != nil {
		return nil, err
	}
	recorded, err := graph.RecordGroupLike(ctx, likerID, groupID)
	if err != nil {
		return nil, err
	}

	already, err := ledger.ProfileHasMatchWithAnyOf(ctx, likerID, profileIDs(members))
	if err != nil {
		return nil, err
	}
	if already {
		return &Result{Outcome: OutcomeAlreadyMatched, LikeRecorded: recorded}, nil
	}

	// Mutual-interest candidates: members who previously liked the liker,
	// in the group's stored membership order.
	var candidates []models.Profile
	for _, member := range members {
		liked, err := graph.HasLiked(ctx, member.ID, likerID)
		if err != nil {
			return nil, err
		}
		if liked {
			candidates = append(candidates, member)
		}
	}

	res, err := resolveGroupCandidates(ctx, graph, ledger, likerID, candidates, OriginLiked, []uint{group.ID})
	if err != nil {
		return nil, err
	}
	res.LikeRecorded = recorded
	return res, nil
}

// resolveGroupToIndividual handles a group member liking a standalone
// profile on the group's behalf.
func resolveGroupToIndividual(ctx context.Context, tx *gorm.DB, graph *IdentityGraph, ledger *MatchLedger, actingID uint, likerGroup *models.Group, targetID uint) (*Result, error) {
	if err := requireProfile(tx, targetID); err != nil {
		return nil, err
	}
	recorded, err := graph.RecordProfileLike(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}

	members, err := graph.MembersInOrder(ctx, likerGroup.ID)
	if err != nil {
		return nil, err
	}
	already, err := ledger.ProfileHasMatchWithAnyOf(ctx, targetID, profileIDs(members))
	if err != nil {
		return nil, err
	}
	if already {
		return &Result{Outcome: OutcomeAlreadyMatched, LikeRecorded: recorded}, nil
	}

	// Mutual group interest: the target previously liked the acting group.
	mutual, err := graph.GroupHasLikeFrom(ctx, likerGroup.ID, targetID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return &Result{Outcome: OutcomeLike, LikeRecorded: recorded}, nil
	}

	// A blocked pair never matches, no matter what likes say.
	blocked, err := graph.IsBlockedEitherWay(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return &Result{Outcome: OutcomeLike, LikeRecorded: recorded}, nil
	}

	existing, err := ledger.FindMatch(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Outcome: OutcomeSameMatch, Origin: OriginCurrent, Match: existing, LikeRecorded: recorded}, nil
	}

	match, created, err := ledger.CreateMatch(ctx, actingID, targetID, []uint{likerGroup.ID})
	if err != nil {
		return nil, err
	}
	if !created {
		return &Result{Outcome: OutcomeSameMatch, Origin: OriginCurrent, Match: match, LikeRecorded: recorded}, nil
	}
	return &Result{Outcome: OutcomeNewMatch, Origin: OriginCurrent, Match: match, LikeRecorded: recorded}, nil
}

// resolveGroupToGroup handles a group member liking another group on the
// group's behalf.
func resolveGroupToGroup(ctx context.Context, tx *gorm.DB, graph *IdentityGraph, ledger *MatchLedger, actingID uint, likerGroup *models.Group, targetGroupID uint) (*Result, error) {
	targetGroup, members, err := requireGroupWithMembers(ctx, tx, graph, targetGroupID)
	if err != nil {
		return nil, err
	}
	recorded, err := graph.RecordGroupLike(ctx, actingID, targetGroupID)
	if err != nil {
		return nil, err
	}

	already, err := ledger.GroupsShareAnyMatch(ctx, likerGroup.ID, targetGroup.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return &Result{Outcome: OutcomeAlreadyMatched, LikeRecorded: recorded}, nil
	}

	// Mutual-interest candidates: target-group members who previously liked
	// the acting group, in membership order.
	var candidates []models.Profile
	for _, member := range members {
		liked, err := graph.GroupHasLikeFrom(ctx, likerGroup.ID, member.ID)
		if err != nil {
			return nil, err
		}
		if liked {
			candidates = append(candidates, member)
		}
	}

	res, err := resolveGroupCandidates(ctx, graph, ledger, actingID, candidates, OriginBoth, []uint{likerGroup.ID, targetGroup.ID})
	if err != nil {
		return nil, err
	}
	res.LikeRecorded = recorded
	return res, nil
}

// resolveGroupCandidates runs the shared "first eligible, else recycle first"
// rule for group-mediated topologies.
//
// Candidates are scanned in membership order. The first one with no existing
// match to the liker gets a fresh match; failing that, the first existing
// match found is re-surfaced; with no candidates at all, the like stands
// alone. The liker themselves and blocked pairs are never candidates.
func resolveGroupCandidates(ctx context.Context, graph *IdentityGraph, ledger *MatchLedger, likerID uint, candidates []models.Profile, origin Origin, producingGroupIDs []uint) (*Result, error) {
	var firstExisting *models.Match
	for _, candidate := range candidates {
		if candidate.ID == likerID {
			continue
		}
		blocked, err := graph.IsBlockedEitherWay(ctx, likerID, candidate.ID)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}

		existing, err := ledger.FindMatch(ctx, likerID, candidate.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if firstExisting == nil {
				firstExisting = existing
			}
			continue
		}

		match, created, err := ledger.CreateMatch(ctx, likerID, candidate.ID, producingGroupIDs)
		if err != nil {
			return nil, err
		}
		if !created {
			// A concurrent invocation matched this pair first; recycle it.
			return &Result{Outcome: OutcomeSameMatch, Origin: origin, Match: match}, nil
		}
		return &Result{Outcome: OutcomeNewMatch, Origin: origin, Match: match}, nil
	}

	if firstExisting != nil {
		return &Result{Outcome: OutcomeSameMatch, Origin: origin, Match: firstExisting}, nil
	}
	return &Result{Outcome: OutcomeLike}, nil
}

// Unmatch removes a match at the request of one of its parties, along with
// the underlying mutual like edges.
func (r *Resolver) Unmatch(ctx context.Context, matchID, requesterID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := NewMatchLedger(tx)

		match, err := ledger.MatchByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.Involves(requesterID) {
			return ErrUnauthorized
		}

		graph := NewIdentityGraph(tx)
		if _, err := graph.RemoveProfileLike(ctx, match.Profile1ID, match.Profile2ID); err != nil {
			return err
		}
		if _, err := graph.RemoveProfileLike(ctx, match.Profile2ID, match.Profile1ID); err != nil {
			return err
		}

		return ledger.DeleteMatch(ctx, match.ID)
	})
}

func requireProfile(tx *gorm.DB, profileID uint) error {
	var profile models.Profile
	if err := tx.First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func requireGroupWithMembers(ctx context.Context, tx *gorm.DB, graph *IdentityGraph, groupID uint) (*models.Group, []models.Profile, error) {
	var group models.Group
	if err := tx.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	members, err := graph.MembersInOrder(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return &group, members, nil
}

func profileIDs(profiles []models.Profile) []uint {
	ids := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids
}
