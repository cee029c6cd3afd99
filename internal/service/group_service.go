package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store storage.Store
}

var _ api.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group. The caller joins as admin; every other
// member must be a registered user.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, toConnectError("CreateGroup", ledger.ErrAuthenticationRequired)
	}

	now := time.Now().Unix()
	group := &models.Group{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		CreatedBy:   callerID,
		Members:     []models.GroupMember{{UserID: callerID, Role: models.RoleAdmin, JoinedAt: now}},
		CreatedAt:   now,
	}
	for _, id := range req.Msg.MemberIDs {
		if group.HasMember(id) {
			continue
		}
		if _, err := s.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, toConnectError("CreateGroup", ledger.ErrUserNotFound)
			}
			return nil, toConnectError("CreateGroup", err)
		}
		group.Members = append(group.Members, models.GroupMember{UserID: id, Role: models.RoleMember, JoinedAt: now})
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, toConnectError("GetGroup", ledger.ErrAuthenticationRequired)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError("GetGroup", ledger.ErrGroupNotFound)
	}
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}
	if !group.HasMember(callerID) {
		return nil, toConnectError("GetGroup", ledger.ErrNotAGroupMember)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns every group the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, toConnectError("ListGroups", ledger.ErrAuthenticationRequired)
	}

	groups, err := s.store.ListGroupsForUser(ctx, callerID)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}

	slog.Info("ListGroups successful", "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}
