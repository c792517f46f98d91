package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/planweave/planweave/internal/export"
	"github.com/planweave/planweave/internal/gantt"
	"github.com/planweave/planweave/internal/storage"
	"github.com/planweave/planweave/internal/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type createProjectRequest struct {
	Name   string `json:"name"`
	Vision string `json:"vision"`
}

type projectResponse struct {
	Project *types.Project  `json:"project"`
	Plan    *types.PlanTree `json:"plan,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ErrValidation, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Vision == "" {
		WriteError(w, ErrValidation, "vision is required", http.StatusBadRequest)
		return
	}

	project, plan, err := s.planner.Generate(r.Context(), req.Name, req.Vision)
	if err != nil {
		WriteError(w, ErrUpstream, err.Error(), http.StatusBadGateway)
		return
	}
	WriteSuccess(w, projectResponse{Project: project, Plan: plan}, http.StatusCreated)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSuccess(w, map[string]any{"projects": projects}, http.StatusOK)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromPath(w, r)
	if !ok {
		return
	}
	plan, err := s.store.GetPlanTree(r.Context(), project.ID)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSuccess(w, projectResponse{Project: project, Plan: plan}, http.StatusOK)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idFromPath(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, ErrNotFound, "project not found", http.StatusNotFound)
			return
		}
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": id}, http.StatusOK)
}

type editRequest struct {
	Field  string `json:"field"`
	NodeID int64  `json:"node_id"`
	Value  string `json:"value"`
}

type editResponse struct {
	Plan    *types.PlanTree `json:"plan"`
	Version int64           `json:"version"`
}

// handleEdit applies a single field edit and reconciles the whole tree.
// A stale concurrent edit gets 409; a generation failure gets 502 with the
// field edit already saved, matching the reconciler's semantics.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idFromPath(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ErrValidation, "invalid JSON body", http.StatusBadRequest)
		return
	}
	edit := types.FieldEdit{Field: types.EditedField(req.Field), NodeID: req.NodeID, Value: req.Value}
	if err := edit.Validate(); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}

	plan, version, err := s.planner.Reconcile(r.Context(), id, edit)
	switch {
	case err == nil:
		WriteSuccess(w, editResponse{Plan: plan, Version: version}, http.StatusOK)
	case errors.Is(err, storage.ErrStaleVersion):
		WriteError(w, ErrConflict, "plan was modified concurrently, reload and retry", http.StatusConflict)
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, ErrNotFound, "project or node not found", http.StatusNotFound)
	default:
		WriteError(w, ErrUpstream, err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) handleGantt(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectFromPath(w, r)
	if !ok {
		return
	}
	tasks, err := s.store.TasksForProject(r.Context(), project.ID)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(tasks) == 0 {
		WriteError(w, ErrNotFound, "no tasks found", http.StatusNotFound)
		return
	}

	rows := gantt.BuildRows(tasks, time.Now())
	taskMap, _ := json.Marshal(gantt.TaskMap(rows))
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Task-Map", string(taskMap))
	w.Write([]byte(gantt.RenderSVG(rows)))
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	project, plan, ok := s.projectAndPlan(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(export.BuildFlatDocument(project, plan))
}

func (s *Server) handleExportPlanCSV(w http.ResponseWriter, r *http.Request) {
	project, plan, ok := s.projectAndPlan(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		"attachment; filename=project_"+strconv.FormatInt(project.ID, 10)+"_plan.csv")
	export.WritePlanCSV(w, project, plan)
}

func (s *Server) handleExportCommPlan(w http.ResponseWriter, r *http.Request) {
	project, plan, ok := s.projectAndPlan(w, r)
	if !ok {
		return
	}
	facts := export.BuildFacts(project)
	desc := export.BuildDescription(facts, plan)
	comm := export.GenerateCommPlan(r.Context(), s.llm, facts, desc)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(export.RenderCommPlanMarkdown(comm, facts.ProjectName)))
}

func (s *Server) handleExportFinancialPlan(w http.ResponseWriter, r *http.Request) {
	project, plan, ok := s.projectAndPlan(w, r)
	if !ok {
		return
	}
	facts := export.BuildFacts(project)
	desc := export.BuildDescription(facts, plan)
	fin := export.BuildFinancialPlan(export.GenerateFinancialPlan(r.Context(), s.llm, desc), facts, plan)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(export.RenderFinancialPlanMarkdown(fin, facts.ProjectName)))
}

func (s *Server) idFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteError(w, ErrValidation, "invalid project id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) projectFromPath(w http.ResponseWriter, r *http.Request) (*types.Project, bool) {
	id, ok := s.idFromPath(w, r)
	if !ok {
		return nil, false
	}
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, ErrNotFound, "project not found", http.StatusNotFound)
			return nil, false
		}
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return project, true
}

func (s *Server) projectAndPlan(w http.ResponseWriter, r *http.Request) (*types.Project, *types.PlanTree, bool) {
	project, ok := s.projectFromPath(w, r)
	if !ok {
		return nil, nil, false
	}
	plan, err := s.store.GetPlanTree(r.Context(), project.ID)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}
	return project, plan, true
}
