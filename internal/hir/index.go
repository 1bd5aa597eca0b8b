package hir

import (
	"sort"

	"github.com/jzeiders/graphql-intel/internal/store"
)

// TypeConflict records two or more schema files defining the same type
// name. Turning this into a user-facing Diagnostic is internal/analysis's
// job; hir only reports the fact.
type TypeConflict struct {
	Name    string
	FileIds []store.FileId
}

// SchemaTypes is the memoized schema_types(ProjectFiles) query (§4.4): the
// merged, project-wide type index. It is the query whose pointer-identity
// stability across an unrelated document-file edit is the literal
// "golden invariant" test (Property 3 / Scenario E): a document file never
// appears in a schema file's dependency set, so editing one never even
// triggers revalidation of this node, let alone a recompute.
func SchemaTypes(qc *store.QueryContext) (map[string]TypeDef, []TypeConflict, error) {
	type result struct {
		types     map[string]TypeDef
		conflicts []TypeConflict
	}
	r, err := store.Query(qc, "schema_types", "", store.DefaultEqual[result], func(child *store.QueryContext) (result, error) {
		pf := child.ReadProjectFiles()
		types := make(map[string]TypeDef)
		owners := make(map[string][]store.FileId)

		for _, fid := range pf.SchemaFileIds {
			structure, err := FileStructureOf(child, fid)
			if err != nil {
				return result{}, err
			}
			for _, td := range structure.Types {
				if _, exists := types[td.Name]; !exists {
					types[td.Name] = td
				}
				owners[td.Name] = append(owners[td.Name], fid)
			}
		}

		var conflicts []TypeConflict
		for name, fids := range owners {
			if len(fids) > 1 {
				conflicts = append(conflicts, TypeConflict{Name: name, FileIds: sortedFileIds(fids)})
			}
		}
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })

		return result{types: types, conflicts: conflicts}, nil
	})
	return r.types, r.conflicts, err
}

// TypeOwner resolves which schema file first declared (or extended) a
// type name, by re-walking ProjectFiles.SchemaFileIds in order — the same
// order SchemaTypes merges in. It is a separate query from SchemaTypes
// because SchemaTypes itself only needs to know a type conflicts, not
// where IDE features should navigate to for a clean (non-conflicting)
// type; callers that want goto-definition for a type name call this
// directly instead of threading owner FileIds through the merged map.
func TypeOwner(qc *store.QueryContext, name string) (store.FileId, TypeDef, bool) {
	pf := qc.ReadProjectFiles()
	for _, fid := range pf.SchemaFileIds {
		structure, err := FileStructureOf(qc, fid)
		if err != nil {
			continue
		}
		for _, td := range structure.Types {
			if td.Name == name {
				return fid, td, true
			}
		}
	}
	return 0, TypeDef{}, false
}

// FragmentRef locates a fragment definition within the project.
type FragmentRef struct {
	FileId store.FileId
	Name   string
}

// FragmentConflict records two or more document files declaring a fragment
// with the same name (fragment names share one project-wide namespace).
type FragmentConflict struct {
	Name    string
	FileIds []store.FileId
}

// AllFragments is the memoized all_fragments(ProjectFiles) query: the
// project-wide fragment name index used to resolve spreads across files.
func AllFragments(qc *store.QueryContext) (map[string]FragmentRef, []FragmentConflict, error) {
	type result struct {
		refs      map[string]FragmentRef
		conflicts []FragmentConflict
	}
	r, err := store.Query(qc, "all_fragments", "", store.DefaultEqual[result], func(child *store.QueryContext) (result, error) {
		pf := child.ReadProjectFiles()
		refs := make(map[string]FragmentRef)
		owners := make(map[string][]store.FileId)

		for _, fid := range pf.DocumentFileIds {
			structure, err := FileStructureOf(child, fid)
			if err != nil {
				return result{}, err
			}
			for _, frag := range structure.Fragments {
				if _, exists := refs[frag.Name]; !exists {
					refs[frag.Name] = FragmentRef{FileId: fid, Name: frag.Name}
				}
				owners[frag.Name] = append(owners[frag.Name], fid)
			}
		}

		var conflicts []FragmentConflict
		for name, fids := range owners {
			if len(fids) > 1 {
				conflicts = append(conflicts, FragmentConflict{Name: name, FileIds: sortedFileIds(fids)})
			}
		}
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })

		return result{refs: refs, conflicts: conflicts}, nil
	})
	return r.refs, r.conflicts, err
}

// TransitiveResult is what transitiveFragmentsFrom returns: the fix-point
// closure of fragment spreads reachable from one operation or fragment
// body, across file boundaries, resolving names through AllFragments. A
// cycle (a fragment that transitively spreads itself) terminates the walk
// instead of looping forever. No caller in internal/analysis turns Cycle
// into a diagnostic.
type TransitiveResult struct {
	Fragments []FragmentRef
	Cycle     bool
}

func transitiveFragmentsFrom(qc *store.QueryContext, spreads []string, refs map[string]FragmentRef, visited map[string]bool) (TransitiveResult, error) {
	var out []FragmentRef
	cycle := false

	// Explicit slice-as-queue work-list rather than recursive descent:
	// fragment graphs can be cyclic by user error and must still
	// terminate without growing the call stack with the cycle.
	queue := append([]string(nil), spreads...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if visited[name] {
			cycle = true
			continue
		}
		visited[name] = true
		ref, ok := refs[name]
		if !ok {
			continue
		}
		out = append(out, ref)

		body, err := FragmentBodyOf(qc, ref.FileId, ref.Name)
		if err != nil {
			return TransitiveResult{}, err
		}
		queue = append(queue, body.FragmentSpreads...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return TransitiveResult{Fragments: out, Cycle: cycle}, nil
}

// OperationTransitiveFragments is the memoized
// operation_transitive_fragments(FileId, definitionIndex) query: the full
// set of fragments an operation depends on, transitively, by name
// resolution through AllFragments.
func OperationTransitiveFragments(qc *store.QueryContext, id store.FileId, definitionIndex int) (TransitiveResult, error) {
	return store.Query(qc, "operation_transitive_fragments", operationBodyKey(id, definitionIndex), store.DefaultEqual[TransitiveResult], func(child *store.QueryContext) (TransitiveResult, error) {
		body, err := OperationBodyOf(child, id, definitionIndex)
		if err != nil {
			return TransitiveResult{}, err
		}
		refs, _, err := AllFragments(child)
		if err != nil {
			return TransitiveResult{}, err
		}
		return transitiveFragmentsFrom(child, body.FragmentSpreads, refs, map[string]bool{})
	})
}

func sortedFileIds(ids []store.FileId) []store.FileId {
	out := append([]store.FileId(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
