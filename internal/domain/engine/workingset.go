package engine


// ScopeEntry is what a single identifier resolves to within a scope (spec
// §4.3: "each scope contains a mapping from identifier to declaration id /
// variable id / module id / alias expression, plus a hide list").
type ScopeEntry struct {
	DeclID   *DeclID
	VarID    *VarID
	ModuleID *ModuleID
	Alias    *Expr
}

// Scope is one level of the parser's scope stack.
type Scope struct {
	bindings map[string]ScopeEntry
	hidden   map[string]bool
}

func newScope() *Scope {
	return &Scope{bindings: make(map[string]ScopeEntry), hidden: make(map[string]bool)}
}

// WorkingSet is the transient overlay of spec §3.6/§4.3 used during
// parsing: it records new declarations/blocks/modules/variables and owns
// the scope stack; it is either merged into Engine State (commit) or
// dropped (speculative parse, e.g. for completion/highlighting).
//
// Grounded in the teacher's PluginRegistry
// (internal/plugin/registry_new.go), which also separates "pending
// registration" bookkeeping (dependency graph, metadata map) from the
// final committed set — generalized here from plugin bookkeeping to
// parse-time declaration bookkeeping.
type WorkingSet struct {
	base   *State
	delta  Delta
	scopes []*Scope
}

// NewWorkingSet opens a new parse overlay against base.
func NewWorkingSet(base *State) *WorkingSet {
	ws := &WorkingSet{base: base}
	ws.PushScope()
	return ws
}

// PushScope opens a new lexical scope (entering a block).
func (ws *WorkingSet) PushScope() {
	ws.scopes = append(ws.scopes, newScope())
}

// PopScope closes the innermost lexical scope.
func (ws *WorkingSet) PopScope() {
	if len(ws.scopes) == 0 {
		return
	}
	ws.scopes = ws.scopes[:len(ws.scopes)-1]
}

func (ws *WorkingSet) top() *Scope { return ws.scopes[len(ws.scopes)-1] }

// AddDecl stages a new declaration in the current scope and delta.
func (ws *WorkingSet) AddDecl(decl *Declaration) DeclID {
	// Negative/placeholder id: resolved on merge. We use the delta slice
	// index as a stand-in id that call sites can compare for identity
	// within this working set, mirroring the teacher's approach of minting
	// ids only once a plugin/decl is actually registered.
	placeholder := DeclID(-(len(ws.delta.Decls) + 1))
	decl.ID = placeholder
	ws.delta.Decls = append(ws.delta.Decls, decl)
	id := placeholder
	ws.top().bindings[decl.Name] = ScopeEntry{DeclID: &id}
	return id
}

// AddBlock stages a new IR block.
func (ws *WorkingSet) AddBlock(block *Block) BlockID {
	placeholder := BlockID(-(len(ws.delta.Blocks) + 1))
	block.ID = placeholder
	ws.delta.Blocks = append(ws.delta.Blocks, block)
	return placeholder
}

// AddModule stages a new module and its declarations.
func (ws *WorkingSet) AddModule(mod *Module) ModuleID {
	placeholder := ModuleID(-(len(ws.delta.Modules) + 1))
	mod.ID = placeholder
	ws.delta.Modules = append(ws.delta.Modules, mod)
	id := placeholder
	ws.top().bindings[mod.Name] = ScopeEntry{ModuleID: &id}
	return id
}

// AddVariable stages a new variable binding and introduces it into the
// current scope.
func (ws *WorkingSet) AddVariable(name string, mutable bool, shape TypeShape) VarID {
	placeholder := VarID(-(len(ws.delta.Variables) + 1))
	v := &Variable{ID: placeholder, Name: name, Mutable: mutable, Declared: shape}
	ws.delta.Variables = append(ws.delta.Variables, v)
	id := placeholder
	ws.top().bindings[name] = ScopeEntry{VarID: &id}
	return id
}

// AddAlias stages an alias binding (spec §4.5 "alias").
func (ws *WorkingSet) AddAlias(name string, expr Expr) {
	ws.top().bindings[name] = ScopeEntry{Alias: &expr}
}

// Hide masks name in the current scope, per spec §4.3 "hides mask entries
// below" and the `hide` keyword (spec §4.5).
func (ws *WorkingSet) Hide(name string) {
	ws.top().hidden[name] = true
}

// Resolve walks the scope stack inner-to-outer, honoring hides, then falls
// back to the already-merged Engine State (spec §4.3 "Scope resolution
// walks inner-to-outer; hides mask entries below").
func (ws *WorkingSet) Resolve(name string) (ScopeEntry, bool) {
	for i := len(ws.scopes) - 1; i >= 0; i-- {
		scope := ws.scopes[i]
		if scope.hidden[name] {
			return ScopeEntry{}, false
		}
		if entry, ok := scope.bindings[name]; ok {
			return entry, true
		}
	}
	if ws.base != nil {
		if id, ok := ws.base.FindDecl(name); ok {
			return ScopeEntry{DeclID: &id}, true
		}
	}
	return ScopeEntry{}, false
}

// FindDeclOrCreatePlugin resolves name to a declaration, and if it is not
// found anywhere, stages a placeholder Plugin-dispatch declaration for it
// — used when the parser encounters a call whose head word is only known
// via a plugin's advertised signature cache (spec §4.3
// "find_decl_or_create_plugin").
func (ws *WorkingSet) FindDeclOrCreatePlugin(name string, sig Signature, pluginID PluginID) (DeclID, bool) {
	if entry, ok := ws.Resolve(name); ok && entry.DeclID != nil {
		return *entry.DeclID, true
	}
	decl := &Declaration{Name: name, Signature: sig, Dispatch: DispatchPlugin, PluginIdentity: pluginID}
	return ws.AddDecl(decl), false
}

// Merge commits this WorkingSet's delta into its base Engine State,
// rewriting every placeholder id used in staged IR to the final id (spec
// §4.3 "merge_delta"). A speculative parse simply never calls Merge; its
// WorkingSet (and delta) is garbage once dropped.
func (ws *WorkingSet) Merge() Delta {
	declBase := len(ws.base.decls0())
	blockBase := len(ws.base.blocks0())
	varBase := len(ws.base.variables0())

	remapDecl := func(id DeclID) DeclID {
		if id < 0 {
			return DeclID(declBase + int(-id-1))
		}
		return id
	}
	remapBlock := func(id BlockID) BlockID {
		if id < 0 {
			return BlockID(blockBase + int(-id-1))
		}
		return id
	}
	remapVar := func(id VarID) VarID {
		if id < 0 {
			return VarID(varBase + int(-id-1))
		}
		return id
	}

	for _, decl := range ws.delta.Decls {
		if decl.Dispatch == DispatchUserDefined {
			decl.UserDefinedBody = remapBlock(decl.UserDefinedBody)
		}
		remapExpr(decl.AliasExpr, remapDecl, remapBlock, remapVar)
	}
	for _, blk := range ws.delta.Blocks {
		for _, id := range blk.Params {
			_ = id // params already final-looking VarIDs from placeholders remapped below
		}
		for i := range blk.Params {
			blk.Params[i] = remapVar(blk.Params[i])
		}
		for i := range blk.Captures {
			blk.Captures[i] = remapVar(blk.Captures[i])
		}
		for pi := range blk.Pipelines {
			for ei := range blk.Pipelines[pi].Elements {
				remapExpr(&blk.Pipelines[pi].Elements[ei].Expr, remapDecl, remapBlock, remapVar)
			}
		}
	}
	for _, mod := range ws.delta.Modules {
		for i := range mod.DeclIDs {
			mod.DeclIDs[i] = remapDecl(mod.DeclIDs[i])
		}
	}

	return ws.base.MergeDelta(ws.delta)
}

// remapExpr walks an expression tree rewriting placeholder ids to final
// Engine State ids at merge time.
func remapExpr(e *Expr, rd func(DeclID) DeclID, rb func(BlockID) BlockID, rv func(VarID) VarID) {
	if e == nil {
		return
	}
	e.CallDecl = rd(e.CallDecl)
	e.ClosureBlock = rb(e.ClosureBlock)
	e.SubBlock = rb(e.SubBlock)
	e.ThenBody = rb(e.ThenBody)
	if e.ElseBody != nil {
		v := rb(*e.ElseBody)
		e.ElseBody = &v
	}
	e.Body = rb(e.Body)
	e.TryBody = rb(e.TryBody)
	if e.CatchBody != nil {
		v := rb(*e.CatchBody)
		e.CatchBody = &v
	}
	if e.Kind != ExprVarRef || e.CallName == "" {
		e.VarID = rv(e.VarID) // sigil refs ($env, ...) keep VarID -1 for dynamic lookup
	}
	e.LoopVar = rv(e.LoopVar)
	if e.CatchVar != nil {
		v := rv(*e.CatchVar)
		e.CatchVar = &v
	}
	remapExpr(e.Left, rd, rb, rv)
	remapExpr(e.Right, rd, rb, rv)
	remapExpr(e.Base, rd, rb, rv)
	remapExpr(e.Cond, rd, rb, rv)
	remapExpr(e.Iterable, rd, rb, rv)
	remapExpr(e.Subject, rd, rb, rv)
	remapExpr(e.RangeStart, rd, rb, rv)
	remapExpr(e.RangeEnd, rd, rb, rv)
	remapExpr(e.RangeStep, rd, rb, rv)
	remapExpr(e.ReturnVal, rd, rb, rv)
	remapExpr(e.Init, rd, rb, rv)
	for i := range e.Args {
		remapExpr(&e.Args[i].Value, rd, rb, rv)
	}
	for i := range e.Elements {
		remapExpr(&e.Elements[i], rd, rb, rv)
	}
	for i := range e.RecordKeys {
		remapExpr(&e.RecordKeys[i], rd, rb, rv)
	}
	for i := range e.RecordVals {
		remapExpr(&e.RecordVals[i], rd, rb, rv)
	}
	for i := range e.Parts {
		remapExpr(&e.Parts[i], rd, rb, rv)
	}
	for i := range e.Arms {
		remapExpr(&e.Arms[i].Body, rd, rb, rv)
	}
}

// small accessors so WorkingSet.Merge can compute base lengths without
// exposing State's internals publicly.
func (s *State) decls0() []*Declaration  { s.mu.RLock(); defer s.mu.RUnlock(); return s.decls }
func (s *State) blocks0() []*Block       { s.mu.RLock(); defer s.mu.RUnlock(); return s.blocks }
func (s *State) variables0() []*Variable { s.mu.RLock(); defer s.mu.RUnlock(); return s.variables }
