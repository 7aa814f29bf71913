package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertRequest(ctx context.Context, req *models.ServiceRequest) error {
	id, err := s.nextID(ctx, requestsCollection)
	if err != nil {
		return err
	}
	req.ID = id
	if _, err := s.requests.InsertOne(ctx, req); err != nil {
		return mapError(err, "service request")
	}
	return nil
}

func (s *Store) FindRequest(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, mapError(err, fmt.Sprintf("service request %d", id))
	}
	return &req, nil
}

// ReplaceRequest writes the whole document back. citizenId and createdAt are
// carried over from the loaded document, never from caller input.
func (s *Store) ReplaceRequest(ctx context.Context, req *models.ServiceRequest) error {
	res, err := s.requests.ReplaceOne(ctx, bson.M{"_id": req.ID}, req)
	if err != nil {
		return mapError(err, "service request")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: service request %d", models.ErrNotFound, req.ID)
	}
	return nil
}

// ListRequests returns one page plus the count of every matching document.
func (s *Store) ListRequests(ctx context.Context, q models.RequestQuery) ([]models.ServiceRequest, int64, error) {
	filter, err := s.requestFilter(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.requests.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count service requests: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(q.Skip).
		SetLimit(q.Limit)

	cursor, err := s.requests.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find service requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := make([]models.ServiceRequest, 0, q.Limit)
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("decode service requests: %w", err)
	}
	return requests, total, nil
}

// requestFilter resolves submitter-name matches before building the filter,
// since the name lives on the users collection.
func (s *Store) requestFilter(ctx context.Context, f models.RequestFilter) (bson.M, error) {
	var submitterIDs []int64
	if f.Search != "" {
		cursor, err := s.users.Find(ctx,
			bson.M{"fullName": searchRegex(f.Search)},
			options.Find().SetProjection(bson.M{"_id": 1}),
		)
		if err != nil {
			return nil, fmt.Errorf("search submitters: %w", err)
		}
		var matches []struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.All(ctx, &matches); err != nil {
			return nil, fmt.Errorf("decode submitters: %w", err)
		}
		for _, m := range matches {
			submitterIDs = append(submitterIDs, m.ID)
		}
	}
	return buildRequestFilter(f, submitterIDs), nil
}

// buildRequestFilter ANDs every supplied filter. Search matches title,
// description or one of submitterIDs.
func buildRequestFilter(f models.RequestFilter, submitterIDs []int64) bson.M {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Category != nil {
		filter["category"] = *f.Category
	}
	if f.Priority != nil {
		filter["priority"] = *f.Priority
	}
	if f.CitizenID != nil {
		filter["citizenId"] = *f.CitizenID
	}
	if f.AssignedStaffID != nil {
		filter["assignedStaffId"] = *f.AssignedStaffID
	}
	if f.Search != "" {
		re := searchRegex(f.Search)
		or := []bson.M{
			{"title": re},
			{"description": re},
		}
		if len(submitterIDs) > 0 {
			or = append(or, bson.M{"citizenId": bson.M{"$in": submitterIDs}})
		}
		filter["$or"] = or
	}
	return filter
}

// searchRegex matches the term literally and case-insensitively.
func searchRegex(term string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
}

// RequestStats aggregates counts over the requests matching f.
func (s *Store) RequestStats(ctx context.Context, f models.RequestFilter, now time.Time) (*models.RequestStats, error) {
	filter := buildRequestFilter(f, nil)

	stats := &models.RequestStats{
		ByStatus:   map[string]int64{},
		ByCategory: map[string]int64{},
	}

	for field, into := range map[string]map[string]int64{"$status": stats.ByStatus, "$category": stats.ByCategory} {
		pipeline := []bson.M{
			{"$match": filter},
			{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
		}
		cursor, err := s.requests.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", field, err)
		}
		var groups []struct {
			Key   string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.All(ctx, &groups); err != nil {
			return nil, fmt.Errorf("decode %s groups: %w", field, err)
		}
		for _, g := range groups {
			into[g.Key] = g.Count
			if field == "$status" {
				stats.Total += g.Count
			}
		}
	}

	for _, st := range models.OpenStatuses {
		stats.Open += stats.ByStatus[string(st)]
	}

	for i := 6; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		dayFilter := bson.M{}
		for k, v := range filter {
			dayFilter[k] = v
		}
		dayFilter["createdAt"] = bson.M{"$gte": date, "$lt": nextDate}

		count, err := s.requests.CountDocuments(ctx, dayFilter)
		if err != nil {
			return nil, fmt.Errorf("count requests for %s: %w", date.Format("2006-01-02"), err)
		}
		stats.Last7Days = append(stats.Last7Days, models.DailyCount{
			Date:  date.Format("2006-01-02"),
			Count: count,
		})
	}
	return stats, nil
}

// RecentLocated returns the newest requests carrying both coordinates.
func (s *Store) RecentLocated(ctx context.Context, f models.RequestFilter, limit int64) ([]models.LocatedRequest, error) {
	filter := buildRequestFilter(f, nil)
	filter["latitude"] = bson.M{"$ne": nil}
	filter["longitude"] = bson.M{"$ne": nil}

	projection := bson.M{
		"_id":       1,
		"title":     1,
		"category":  1,
		"status":    1,
		"latitude":  1,
		"longitude": 1,
		"address":   1,
		"createdAt": 1,
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(projection)

	cursor, err := s.requests.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find located requests: %w", err)
	}
	located := []models.LocatedRequest{}
	if err := cursor.All(ctx, &located); err != nil {
		return nil, fmt.Errorf("decode located requests: %w", err)
	}
	return located, nil
}
