// internal/subtype/common.go
package subtype

import "context"

// CommonSuperClass returns the least common ancestor of type1 and type2 in
// the single-inheritance superclass graph, falling back to RootType when
// either is empty, either is an interface, or the ancestry search
// exhausts.
func (o *Oracle) CommonSuperClass(ctx context.Context, type1, type2 string) (string, error) {
	if type1 == "" || type2 == "" {
		return RootType, nil
	}
	if type1 == type2 {
		return type1, nil
	}

	info1, err := o.info(ctx, type1)
	if err != nil {
		return "", err
	}
	info2, err := o.info(ctx, type2)
	if err != nil {
		return "", err
	}
	if info1.IsInterface || info2.IsInterface {
		return RootType, nil
	}

	ancestors2, err := o.ancestorChain(ctx, type2)
	if err != nil {
		return "", err
	}
	inChain2 := make(map[string]bool, len(ancestors2))
	for _, n := range ancestors2 {
		inChain2[n] = true
	}

	name := type1
	visited := map[string]bool{}
	for name != "" {
		if visited[name] {
			break
		}
		visited[name] = true
		if inChain2[name] {
			return name, nil
		}
		info, err := o.info(ctx, name)
		if err != nil {
			return RootType, nil
		}
		name = info.Super
	}
	return RootType, nil
}

// ancestorChain returns name and every superclass above it, stopping at an
// empty superclass name or a revisited name (malformed cycle).
func (o *Oracle) ancestorChain(ctx context.Context, name string) ([]string, error) {
	chain := make([]string, 0, 8)
	visited := map[string]bool{}
	for name != "" {
		if visited[name] {
			break
		}
		visited[name] = true
		chain = append(chain, name)
		info, err := o.info(ctx, name)
		if err != nil {
			break
		}
		name = info.Super
	}
	return chain, nil
}

// IsDerivedFrom walks from sub's direct superclass upward looking for
// super, stopping at RootType (which has no superclass to look up), guarded
// by a visited set so malformed cycles return false instead of looping
// forever.
func (o *Oracle) IsDerivedFrom(ctx context.Context, sub, super string) (bool, error) {
	if sub == "" || super == "" {
		return false, nil
	}
	info, err := o.info(ctx, sub)
	if err != nil {
		return false, err
	}
	name := info.Super
	visited := map[string]bool{sub: true}
	for name != "" {
		if name == super {
			return true, nil
		}
		if visited[name] || name == RootType {
			return false, nil
		}
		visited[name] = true
		info, err := o.info(ctx, name)
		if err != nil {
			return false, err
		}
		name = info.Super
	}
	return false, nil
}
