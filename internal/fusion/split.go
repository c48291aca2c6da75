package fusion

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// SplitData rebuilds the data object every fused query expects from the
// data object of the merged response. Keys missing in data are left out of
// the results; nulls and lists propagate as they are.
func (s *Session) SplitData(data map[string]interface{}) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(s.expanded))
	for idx, selectionSet := range s.expanded {
		if data == nil {
			results = append(results, nil)
			continue
		}
		result := make(map[string]interface{})
		s.extractObject(idx, "", data, selectionSet, result)
		results = append(results, result)
	}

	return results
}

func (s *Session) extract(query int, path string, payload interface{}, selectionSet ast.SelectionSet) interface{} {
	switch payload := payload.(type) {
	case nil:
		return nil
	case []interface{}:
		result := make([]interface{}, 0, len(payload))
		for _, elem := range payload {
			result = append(result, s.extract(query, path, elem, selectionSet))
		}
		return result
	case map[string]interface{}:
		result := make(map[string]interface{})
		s.extractObject(query, path, payload, selectionSet, result)
		return result
	default:
		// not an object, nothing to select from
		return payload
	}
}

func (s *Session) extractObject(query int, path string, payload map[string]interface{}, selectionSet ast.SelectionSet, result map[string]interface{}) {
	for idx, selection := range selectionSet {
		p := childPath(path, idx)

		switch selection := selection.(type) {
		case *ast.Field:
			value, ok := payload[s.payloadKey(query, p, selection)]
			if !ok {
				continue
			}
			if len(selection.SelectionSet) != 0 {
				value = s.extract(query, p, value, selection.SelectionSet)
			}
			dest := responseName(selection)
			if existing, ok := result[dest]; ok {
				value = mergeExtracted(existing, value)
			}
			result[dest] = value

		case *ast.InlineFragment:
			s.extractObject(query, p, payload, selection.SelectionSet, result)
		}
	}
}

// mergeExtracted combines two extractions written to the same response key,
// which happens when several selections of one query share a response name.
// existing may be part of the response payload, so it is copied, not modified.
func mergeExtracted(existing, value interface{}) interface{} {
	switch existing := existing.(type) {
	case map[string]interface{}:
		valueMap, ok := value.(map[string]interface{})
		if !ok {
			return value
		}
		merged := make(map[string]interface{}, len(existing)+len(valueMap))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range valueMap {
			if prev, ok := merged[k]; ok {
				v = mergeExtracted(prev, v)
			}
			merged[k] = v
		}
		return merged
	case []interface{}:
		valueList, ok := value.([]interface{})
		if !ok || len(valueList) != len(existing) {
			return value
		}
		merged := make([]interface{}, len(existing))
		for idx := range existing {
			merged[idx] = mergeExtracted(existing[idx], valueList[idx])
		}
		return merged
	}

	return value
}

func (s *Session) payloadKey(query int, path string, field *ast.Field) string {
	if key, ok := s.responseKeys[selectionKey{Query: query, Path: path}]; ok {
		return key
	}

	return field.Name
}

// translatePath rewrites a path of the merged response into the path query
// sees. ok is false when a named segment isn't selected by query. Segments
// below a leaf field are kept as they are.
func (s *Session) translatePath(query int, path ast.Path) (ast.Path, bool) {
	result := make(ast.Path, 0, len(path))
	selectionSet := s.expanded[query]
	selectionPath := ""

	for idx, elem := range path {
		name, isName := elem.(ast.PathName)
		if !isName {
			result = append(result, elem)
			continue
		}
		if len(selectionSet) == 0 && idx != 0 {
			result = append(result, path[idx:]...)
			return result, true
		}
		field, p := s.findFieldByPayloadKey(query, selectionPath, selectionSet, string(name))
		if field == nil {
			return nil, false
		}
		result = append(result, ast.PathName(responseName(field)))
		selectionSet = field.SelectionSet
		selectionPath = p
	}

	return result, true
}

func (s *Session) findFieldByPayloadKey(query int, path string, selectionSet ast.SelectionSet, key string) (*ast.Field, string) {
	for idx, selection := range selectionSet {
		p := childPath(path, idx)
		switch selection := selection.(type) {
		case *ast.Field:
			if s.payloadKey(query, p, selection) == key {
				return selection, p
			}
		case *ast.InlineFragment:
			if field, fp := s.findFieldByPayloadKey(query, p, selection.SelectionSet, key); field != nil {
				return field, fp
			}
		}
	}

	return nil, ""
}

// SplitErrors hands every error to the queries it belongs to. Errors with a
// path go to the queries that selected it, with the path rewritten to the
// response keys of that query. Errors without a path, or with a path no query
// selected, go to every query.
func (s *Session) SplitErrors(errs gqlerror.List) []gqlerror.List {
	results := make([]gqlerror.List, len(s.expanded))
	if len(errs) == 0 {
		return results
	}

	for _, gErr := range errs {
		if gErr == nil {
			continue
		}
		delivered := false
		if len(gErr.Path) != 0 {
			for idx := range s.expanded {
				path, ok := s.translatePath(idx, gErr.Path)
				if !ok {
					continue
				}
				copied := *gErr
				copied.Path = path
				results[idx] = append(results[idx], &copied)
				delivered = true
			}
		}
		if delivered {
			continue
		}
		for idx := range s.expanded {
			results[idx] = append(results[idx], gErr)
		}
	}

	return results
}
