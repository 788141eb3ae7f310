package importer

import (
	"net/http"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/batch"
	"Feedspeed/internal/refdata"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// MaxUpload bounds the multipart body.
const MaxUpload = 8 << 20

type Handler struct {
	Data refdata.Provider
	Log  *zap.Logger
}

// Import handles POST /import/{kind} with the workbook in the "file" field.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	kind := batch.Kind(mux.Vars(r)["kind"])
	if _, err := Columns(kind); err != nil {
		calc.WriteError(w, h.Log, "import", err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		h.Log.Warn("unreadable workbook", zap.String("kind", string(kind)), zap.Error(err))
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		http.Error(w, "Empty sheet", http.StatusBadRequest)
		return
	}

	res, err := Run(kind, rows[1:], h.Data)
	if err != nil {
		calc.WriteError(w, h.Log, "import_"+string(kind), err)
		return
	}
	h.Log.Info("workbook imported", zap.String("kind", string(kind)), zap.String("sheet", sheet), zap.Int("rows", len(rows)-1))
	calc.WriteJSON(w, http.StatusOK, res)
}

// Template handles GET /import/{kind}/template: an empty workbook with the
// header row for kind.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	kind := batch.Kind(mux.Vars(r)["kind"])
	cols, err := Columns(kind)
	if err != nil {
		calc.WriteError(w, h.Log, "import", err)
		return
	}
	f := excelize.NewFile()
	defer f.Close()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		h.Log.Error("build template", zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+string(kind)+".xlsx\"")
	if err := f.Write(w); err != nil {
		h.Log.Error("write template", zap.Error(err))
	}
}
