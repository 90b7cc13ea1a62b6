// Package scripting hosts the Lua side of behavior dispatch: Go owns target
// detection and command execution, Lua owns the decision logic.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only
// (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all .lua files from scriptsDir.
// An empty or missing directory yields a working engine with no functions;
// scripts can still be injected with DoString.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load behavior scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString executes raw Lua source. Used by tests.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// MovementContext holds pre-packed agent state for a Lua movement function.
type MovementContext struct {
	Archetype string
	X, Y, Z   float64
	HP        int
	MaxHP     int
	MaxSpeed  float64
	Alert     bool
	Defensive bool
}

// MovementResult is decoded from the Lua movement table.
type MovementResult struct {
	MoveX, MoveY, MoveZ float64
	SpeedScale          float64
	FaceX, FaceY, FaceZ float64
}

// CombatContext holds pre-packed state for a Lua combat function.
type CombatContext struct {
	Archetype                 string
	X, Y, Z                   float64
	HP, MaxHP                 int
	TargetID                  uint64
	TargetX, TargetY, TargetZ float64
	TargetDist                float64
	LineOfSight               bool
}

// CombatResult is decoded from the Lua combat table.
type CombatResult struct {
	Attack           bool
	Action           string // "melee", "ranged_trace", "taser"
	AimX, AimY, AimZ float64
}

// RunMovement calls the named Lua function with a context table. A nil
// return from Lua means the script declined to produce a decision.
func (e *Engine) RunMovement(fn string, ctx MovementContext) (MovementResult, error) {
	t := e.vm.NewTable()
	t.RawSetString("archetype", lua.LString(ctx.Archetype))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("z", lua.LNumber(ctx.Z))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("max_speed", lua.LNumber(ctx.MaxSpeed))
	t.RawSetString("alert", lua.LBool(ctx.Alert))
	t.RawSetString("defensive", lua.LBool(ctx.Defensive))

	rt, err := e.call(fn, t)
	if err != nil {
		return MovementResult{}, err
	}
	if rt == nil {
		return MovementResult{}, fmt.Errorf("lua %s declined", fn)
	}
	return MovementResult{
		MoveX:      num(rt, "move_x"),
		MoveY:      num(rt, "move_y"),
		MoveZ:      num(rt, "move_z"),
		SpeedScale: num(rt, "speed_scale"),
		FaceX:      num(rt, "face_x"),
		FaceY:      num(rt, "face_y"),
		FaceZ:      num(rt, "face_z"),
	}, nil
}

// RunCombat calls the named Lua function with a context table. A nil return
// means no attack this tick.
func (e *Engine) RunCombat(fn string, ctx CombatContext) (CombatResult, error) {
	t := e.vm.NewTable()
	t.RawSetString("archetype", lua.LString(ctx.Archetype))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("z", lua.LNumber(ctx.Z))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))

	tgt := e.vm.NewTable()
	tgt.RawSetString("id", lua.LNumber(ctx.TargetID))
	tgt.RawSetString("x", lua.LNumber(ctx.TargetX))
	tgt.RawSetString("y", lua.LNumber(ctx.TargetY))
	tgt.RawSetString("z", lua.LNumber(ctx.TargetZ))
	tgt.RawSetString("dist", lua.LNumber(ctx.TargetDist))
	tgt.RawSetString("los", lua.LBool(ctx.LineOfSight))
	t.RawSetString("target", tgt)

	rt, err := e.call(fn, t)
	if err != nil || rt == nil {
		return CombatResult{}, err
	}
	return CombatResult{
		Attack: rt.RawGetString("attack") == lua.LTrue,
		Action: lua.LVAsString(rt.RawGetString("action")),
		AimX:   num(rt, "aim_x"),
		AimY:   num(rt, "aim_y"),
		AimZ:   num(rt, "aim_z"),
	}, nil
}

// call invokes a global Lua function with one table argument and returns the
// result table, or nil when the script returned nil.
func (e *Engine) call(fn string, arg *lua.LTable) (*lua.LTable, error) {
	f := e.vm.GetGlobal(fn)
	if f == lua.LNil {
		return nil, fmt.Errorf("lua function %s not found", fn)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call failed", zap.String("fn", fn), zap.Error(err))
		return nil, fmt.Errorf("lua %s: %w", fn, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	if result == lua.LNil {
		return nil, nil
	}
	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua %s returned %s, want table or nil", fn, result.Type())
	}
	return rt, nil
}

func num(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}
