package interp

import (
	"github.com/rbscript-lang/rbscript/pkg/ast"
	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/sqlstore"
	"github.com/rbscript-lang/rbscript/pkg/token"
	"github.com/rbscript-lang/rbscript/pkg/value"
)

// GraphicsCallNames is the I/O sink's extended surface beyond print/input
// (spec §6): graphics/window, keyboard/mouse, and timing calls, each
// forwarded to the configured iosink.Sink. It is exported for the
// transpiler's feature-flag detection pass to share this set.
var GraphicsCallNames = map[string]bool{
	"graphics-mode": true, "text-mode": true, "clear-screen": true,
	"set-colour": true, "draw-pixel": true, "draw-line": true,
	"draw-rect": true, "draw-circle": true, "draw-text": true,
	"refresh-screen": true, "key-pressed": true, "mouse-clicked": true,
	"get-mouse-pos": true, "quit-requested": true, "sleep-ms": true,
	"get-ticks": true,
}

// DatabaseCallNames is the SQL embedded-database collaborator's call
// surface, shared with the transpiler's feature-flag detection pass.
var DatabaseCallNames = map[string]bool{
	"db-open": true, "db-exec": true, "db-query": true, "db-close": true,
}

// sinkErr turns an adapter failure into the call's return value: a
// console-only build's ErrUnsupported becomes a false/zero result rather
// than a runtime error, since the graphics sink is an external
// collaborator this core never assumes is backed by a real window system.
func sinkErr(pos token.Position, err error) error {
	if err == nil || err == iosink.ErrUnsupported {
		return nil
	}
	return runtimeErr(pos, "%v", err)
}

// evalSinkCall dispatches the I/O sink's graphics/window/keyboard/timing
// surface. Returns handled=false for any other call name.
func (in *Interp) evalSinkCall(call *ast.Call, args []value.Value) (value.Value, bool, error) {
	if !GraphicsCallNames[call.Name] {
		return value.Value{}, false, nil
	}
	pos := call.Position
	arg := func(i int) value.Value {
		if i < len(args) {
			return args[i]
		}
		return value.Int(0)
	}

	switch call.Name {
	case "graphics-mode":
		return value.Int(0), true, sinkErr(pos, in.sink.GraphicsMode(int(arg(0).ToInt()), int(arg(1).ToInt())))
	case "text-mode":
		return value.Int(0), true, sinkErr(pos, in.sink.TextMode())
	case "clear-screen":
		return value.Int(0), true, sinkErr(pos, in.sink.ClearScreen())
	case "set-colour":
		return value.Int(0), true, sinkErr(pos, in.sink.SetColour(int(arg(0).ToInt()), int(arg(1).ToInt()), int(arg(2).ToInt())))
	case "draw-pixel":
		return value.Int(0), true, sinkErr(pos, in.sink.DrawPixel(int(arg(0).ToInt()), int(arg(1).ToInt())))
	case "draw-line":
		return value.Int(0), true, sinkErr(pos, in.sink.DrawLine(int(arg(0).ToInt()), int(arg(1).ToInt()), int(arg(2).ToInt()), int(arg(3).ToInt())))
	case "draw-rect":
		return value.Int(0), true, sinkErr(pos, in.sink.DrawRect(int(arg(0).ToInt()), int(arg(1).ToInt()), int(arg(2).ToInt()), int(arg(3).ToInt()), arg(4).Truthy()))
	case "draw-circle":
		return value.Int(0), true, sinkErr(pos, in.sink.DrawCircle(int(arg(0).ToInt()), int(arg(1).ToInt()), int(arg(2).ToInt()), arg(3).Truthy()))
	case "draw-text":
		return value.Int(0), true, sinkErr(pos, in.sink.DrawText(int(arg(0).ToInt()), int(arg(1).ToInt()), arg(2).String()))
	case "refresh-screen":
		return value.Int(0), true, sinkErr(pos, in.sink.RefreshScreen())
	case "key-pressed":
		ok, err := in.sink.KeyPressed(arg(0).String())
		return value.Bool(ok), true, sinkErr(pos, err)
	case "mouse-clicked":
		ok, err := in.sink.MouseClicked()
		return value.Bool(ok), true, sinkErr(pos, err)
	case "get-mouse-pos":
		x, y, err := in.sink.GetMousePos()
		return value.NewVec(2, float64(x), float64(y)), true, sinkErr(pos, err)
	case "quit-requested":
		ok, err := in.sink.QuitRequested()
		return value.Bool(ok), true, sinkErr(pos, err)
	case "sleep-ms":
		in.sink.SleepMs(int(arg(0).ToInt()))
		return value.Int(0), true, nil
	case "get-ticks":
		return value.Int(in.sink.GetTicks()), true, nil
	default:
		return value.Value{}, false, nil
	}
}

// evalDBCall dispatches the SQL embedded-database collaborator's call
// surface, lazily opening the shared connection on the first db-open
// call. Rows come back as a dynamic array of record values, one per row,
// field names taken from the result's column names.
func (in *Interp) evalDBCall(call *ast.Call, args []value.Value) (value.Value, bool, error) {
	if !DatabaseCallNames[call.Name] {
		return value.Value{}, false, nil
	}
	pos := call.Position

	switch call.Name {
	case "db-open":
		if len(args) != 1 {
			return value.Value{}, true, runtimeErr(pos, "db-open expects 1 argument, got %d", len(args))
		}
		if in.db == nil {
			in.db = sqlstore.NewGormDB()
		}
		if err := in.db.Open(args[0].String()); err != nil {
			return value.Value{}, true, runtimeErr(pos, "%v", err)
		}
		return value.Int(0), true, nil

	case "db-exec":
		if in.db == nil {
			return value.Value{}, true, runtimeErr(pos, "db-exec: database not open")
		}
		if len(args) < 1 {
			return value.Value{}, true, runtimeErr(pos, "db-exec expects at least 1 argument")
		}
		n, err := in.db.Exec(args[0].String(), args[1:]...)
		if err != nil {
			return value.Value{}, true, runtimeErr(pos, "%v", err)
		}
		return value.Int(n), true, nil

	case "db-query":
		if in.db == nil {
			return value.Value{}, true, runtimeErr(pos, "db-query: database not open")
		}
		if len(args) < 1 {
			return value.Value{}, true, runtimeErr(pos, "db-query expects at least 1 argument")
		}
		rows, err := in.db.Query(args[0].String(), args[1:]...)
		if err != nil {
			return value.Value{}, true, runtimeErr(pos, "%v", err)
		}
		out := value.NewDynArray([]int{len(rows)})
		for i, row := range rows {
			rec := value.NewRecord("row")
			for col, v := range row {
				rec.Fields[col] = v
			}
			if err := out.SetSparse([]int64{int64(i)}, rec); err != nil {
				return value.Value{}, true, runtimeErr(pos, "%v", err)
			}
		}
		return out, true, nil

	case "db-close":
		if in.db == nil {
			return value.Int(0), true, nil
		}
		err := in.db.Close()
		in.db = nil
		if err != nil {
			return value.Value{}, true, runtimeErr(pos, "%v", err)
		}
		return value.Int(0), true, nil

	default:
		return value.Value{}, false, nil
	}
}
