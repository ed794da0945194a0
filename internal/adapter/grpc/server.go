package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/simaogato/pricewatch-backend/internal/usecase/cycle"
	"github.com/simaogato/pricewatch-backend/internal/usecase/tracking"
)

// Server implements the PriceWatchService gRPC server
type Server struct {
	TrackingService *tracking.TrackingService
	CycleService    *cycle.CycleService
}

var _ PriceWatchServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(trackingService *tracking.TrackingService, cycleService *cycle.CycleService) *Server {
	return &Server{
		TrackingService: trackingService,
		CycleService:    cycleService,
	}
}

// CreateUser handles the CreateUser RPC
func (s *Server) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}

	user, err := s.TrackingService.CreateUser(ctx, name)
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]any{"user_id": user.ID})
}

// AddTrackedItem handles the AddTrackedItem RPC
func (s *Server) AddTrackedItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return nil, err
	}
	marketplace, err := requireString(req, "marketplace")
	if err != nil {
		return nil, err
	}
	externalID, err := requireString(req, "external_id")
	if err != nil {
		return nil, err
	}

	item, err := s.TrackingService.AddTrackedItem(ctx, tracking.AddTrackedItemInput{
		UserID:      userID,
		Marketplace: marketplace,
		ExternalID:  externalID,
		Title:       optionalString(req, "title"),
		URL:         optionalString(req, "url"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]any{"tracked_item_id": item.ID})
}

// ListTrackedItems handles the ListTrackedItems RPC
func (s *Server) ListTrackedItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return nil, err
	}

	items, err := s.TrackingService.ListTrackedItems(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, trackedItemToMap(item))
	}
	return response(map[string]any{"items": out})
}

// DeactivateTrackedItem handles the DeactivateTrackedItem RPC
func (s *Server) DeactivateTrackedItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itemID, err := requireID(req, "tracked_item_id")
	if err != nil {
		return nil, err
	}

	if err := s.TrackingService.DeactivateTrackedItem(ctx, itemID); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

// AddRule handles the AddRule RPC.
// Numeric params may be sent as numbers or as decimal strings.
func (s *Server) AddRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itemID, err := requireID(req, "tracked_item_id")
	if err != nil {
		return nil, err
	}
	ruleType, err := requireString(req, "rule_type")
	if err != nil {
		return nil, err
	}

	var params domain.RuleParams
	if v, ok := req.GetFields()["params"]; ok {
		switch v.GetKind().(type) {
		case *structpb.Value_StructValue:
			params = domain.RuleParamsFromMap(v.GetStructValue().AsMap())
		case *structpb.Value_NullValue:
		default:
			return nil, status.Error(codes.InvalidArgument, "params must be an object")
		}
	}

	rule, err := s.TrackingService.AddRule(ctx, tracking.AddRuleInput{
		TrackedItemID: itemID,
		RuleType:      ruleType,
		Params:        params,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]any{
		"rule_id":   rule.ID,
		"rule_type": string(rule.Type),
		"params":    rule.Params.ToMap(),
	})
}

// DisableRule handles the DisableRule RPC
func (s *Server) DisableRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ruleID, err := requireID(req, "rule_id")
	if err != nil {
		return nil, err
	}

	if err := s.TrackingService.DisableRule(ctx, ruleID); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

// RunCycle handles the RunCycle RPC
func (s *Server) RunCycle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := s.CycleService.RunCycle(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(cycleResultToMap(result))
}

// ListAlerts handles the ListAlerts RPC
func (s *Server) ListAlerts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return nil, err
	}

	alerts, err := s.TrackingService.ListAlerts(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]any, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, map[string]any{
			"alert_id":        alert.ID,
			"rule_id":         alert.RuleID,
			"tracked_item_id": alert.TrackedItemID,
			"snapshot_id":     alert.SnapshotID,
			"message":         alert.Message,
			"details":         detailsToMap(alert.Details),
			"created_at":      alert.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return response(map[string]any{"alerts": out})
}

// cycleResultToMap converts a cycle result into Struct-compatible values
func cycleResultToMap(result *cycle.Result) map[string]any {
	items := make([]any, 0, len(result.Items))
	for _, item := range result.Items {
		triggered := make([]any, 0, len(item.Triggered))
		for _, fired := range item.Triggered {
			triggered = append(triggered, map[string]any{
				"rule_id": fired.RuleID,
				"message": fired.Message,
				"details": detailsToMap(fired.Details),
			})
		}

		entry := map[string]any{
			"tracked_item_id": item.TrackedItemID,
			"marketplace":     item.Marketplace,
			"external_id":     item.ExternalID,
			"snapshot_id":     nil,
			"triggered_count": item.TriggeredCount,
			"triggered":       triggered,
			"failed":          item.Failed,
		}
		if item.SnapshotID != nil {
			entry["snapshot_id"] = *item.SnapshotID
		}
		if item.Failed {
			entry["step"] = string(item.Step)
			entry["error"] = item.Error
		}
		items = append(items, entry)
	}

	return map[string]any{
		"user_id":     result.UserID,
		"run_id":      result.RunID.String(),
		"started_at":  result.StartedAt.Format(time.RFC3339Nano),
		"finished_at": result.FinishedAt.Format(time.RFC3339Nano),
		"results":     items,
	}
}

func trackedItemToMap(item *domain.TrackedItem) map[string]any {
	m := map[string]any{
		"tracked_item_id": item.ID,
		"marketplace":     item.Marketplace,
		"external_id":     item.ExternalID,
		"title":           nil,
		"url":             nil,
	}
	if item.Title != nil {
		m["title"] = *item.Title
	}
	if item.URL != nil {
		m["url"] = *item.URL
	}
	return m
}

// detailsToMap renders decimals as strings to keep their precision
func detailsToMap(details domain.AlertDetails) map[string]any {
	m := make(map[string]any, len(details))
	for k, v := range details {
		switch val := v.(type) {
		case decimal.Decimal:
			m[k] = val.String()
		case bool, string, float64, int64, int, nil:
			m[k] = val
		default:
			m[k] = fmt.Sprint(val)
		}
	}
	return m
}

func response(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// requireID reads a positive integer field
func requireID(req *structpb.Struct, key string) (int64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	if n.NumberValue <= 0 || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue >= math.MaxInt64 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", key)
	}
	return int64(n.NumberValue), nil
}

func requireString(req *structpb.Struct, key string) (string, error) {
	s := optionalString(req, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return *s, nil
}

func optionalString(req *structpb.Struct, key string) *string {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}
	return &s.StringValue
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidRuleType),
		errors.Is(err, domain.ErrInvalidIdentifier):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		return status.Errorf(codes.Unavailable, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
