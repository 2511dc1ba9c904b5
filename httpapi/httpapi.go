// Copyright © 2016, The T Authors.

// Package httpapi implements a read-only HTTP introspection server
// over an instance.Instance's pane tree and registered documents
// (SPEC_FULL.md DOMAIN STACK): a debugging and tooling aid, never a
// control surface — every route is a GET.
//
// Grounded on editor/server.go: the same gorilla/mux route table, the
// same "404 body is the missing path" convention, the same
// Lock-per-request discipline guarding shared state, generalized from
// "buffers and editors" to "panes and documents".
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/gopane/edlib/instance"
	"github.com/gopane/edlib/pane"
)

// Server implements http.Handler, serving introspection routes over
// inst. All state reads happen on inst's own dispatch goroutine (via
// inst.Send) so a concurrent edit never observes a half-updated pane
// tree through the API.
type Server struct {
	sync.Mutex
	inst *instance.Instance
}

// NewServer returns a Server introspecting inst.
func NewServer(inst *instance.Instance) *Server { return &Server{inst: inst} }

// RegisterHandlers registers the following paths and methods, all GET:
//
//	/panes            the flattened pane tree, as a PaneInfo list
//	/panes/{name}     the single pane named name
//	/docs             the registered document names
//	/docs/{name}/marks  the marks held by the named document's store
//
// Unless otherwise stated, the body of all error responses is the
// error message; a missing pane or document responds 404 with the
// requested path as the body.
func (s *Server) RegisterHandlers(r *mux.Router) {
	r.HandleFunc("/panes", s.listPanes).Methods(http.MethodGet)
	r.HandleFunc("/panes/{name}", s.paneInfo).Methods(http.MethodGet)
	r.HandleFunc("/docs", s.listDocs).Methods(http.MethodGet)
	r.HandleFunc("/docs/{name}/marks", s.docMarks).Methods(http.MethodGet)
}

func notFound(w http.ResponseWriter, path string) { http.Error(w, path, http.StatusNotFound) }

// A PaneInfo is the introspectable shape of one pane.
type PaneInfo struct {
	Name     string     `json:"name"`
	Parent   string     `json:"parent,omitempty"`
	Children []string   `json:"children,omitempty"`
	Bounds   [4]int     `json:"bounds"`
	IsRoot   bool       `json:"is_root"`
	IsFocus  bool       `json:"is_focus,omitempty"`
}

func paneInfo(p *pane.Pane) PaneInfo {
	x, y, w, h := p.Bounds()
	info := PaneInfo{
		Name:   p.Name,
		Bounds: [4]int{x, y, w, h},
		IsRoot: p.IsRoot(),
	}
	if !p.IsRoot() {
		info.Parent = p.Parent().Name
	}
	for _, c := range p.Children() {
		info.Children = append(info.Children, c.Name)
	}
	return info
}

func findPane(root *pane.Pane, name string) *pane.Pane {
	if root.Name == name {
		return root
	}
	for _, c := range root.Children() {
		if found := findPane(c, name); found != nil {
			return found
		}
	}
	return nil
}

func flattenPanes(root *pane.Pane, out *[]PaneInfo) {
	*out = append(*out, paneInfo(root))
	for _, c := range root.Children() {
		flattenPanes(c, out)
	}
}

func (s *Server) listPanes(w http.ResponseWriter, req *http.Request) {
	s.Lock()
	defer s.Unlock()

	var infos []PaneInfo
	s.inst.Send(func() { flattenPanes(s.inst.Root, &infos) })

	if err := json.NewEncoder(w).Encode(infos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) paneInfo(w http.ResponseWriter, req *http.Request) {
	s.Lock()
	defer s.Unlock()

	name := mux.Vars(req)["name"]
	var info *PaneInfo
	s.inst.Send(func() {
		if p := findPane(s.inst.Root, name); p != nil {
			i := paneInfo(p)
			info = &i
		}
	})
	if info == nil {
		notFound(w, "/panes/"+name)
		return
	}
	if err := json.NewEncoder(w).Encode(info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) listDocs(w http.ResponseWriter, req *http.Request) {
	s.Lock()
	defer s.Unlock()

	var names []string
	s.inst.Send(func() { names = s.inst.Documents() })

	if err := json.NewEncoder(w).Encode(names); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// A MarkInfo is the introspectable shape of one mark.
type MarkInfo struct {
	Ref   any    `json:"ref"`
	View  int    `json:"view"`
	Point bool   `json:"point"`
}

func (s *Server) docMarks(w http.ResponseWriter, req *http.Request) {
	s.Lock()
	defer s.Unlock()

	name := mux.Vars(req)["name"]
	var marks []MarkInfo
	var found bool
	s.inst.Send(func() {
		base, ok := s.inst.Document(name)
		if !ok {
			return
		}
		found = true
		for h := base.Store.First(); base.Store.Valid(h); h = base.Store.Next(h) {
			marks = append(marks, MarkInfo{
				Ref:   base.Store.Ref(h),
				View:  base.Store.View(h),
				Point: base.Store.IsPoint(h),
			})
		}
	})
	if !found {
		notFound(w, "/docs/"+name+"/marks")
		return
	}
	if err := json.NewEncoder(w).Encode(marks); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
