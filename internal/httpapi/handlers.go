package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/service"
)

type handler struct {
	svc      *service.Services
	validate *validator.Validate
	log      menucache.Logger
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Menus

func (h *handler) listMenus(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(r)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	menus, err := h.svc.Menus.List(r.Context(), p.Offset, p.Limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, orEmpty(menus))
}

func (h *handler) createMenu(w http.ResponseWriter, r *http.Request) {
	var in model.MenuInput
	if err := h.decode(r, &in); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	m, err := h.svc.Menus.Create(r.Context(), in)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusCreated, m)
}

func (h *handler) getMenu(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "menu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	m, err := h.svc.Menus.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, m)
}

func (h *handler) updateMenu(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "menu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	var p model.MenuPatch
	if err := h.decode(r, &p); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	m, err := h.svc.Menus.Update(r.Context(), id, p)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, m)
}

func (h *handler) deleteMenu(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "menu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if err := h.svc.Menus.Delete(r.Context(), id); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, deletedMsg("menu"))
}

// Submenus

func (h *handler) listSubmenus(w http.ResponseWriter, r *http.Request) {
	menuID, err := pathID(r, "menu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	p, err := h.page(r)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	subs, err := h.svc.Submenus.List(r.Context(), menuID, p.Offset, p.Limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, orEmpty(subs))
}

func (h *handler) createSubmenu(w http.ResponseWriter, r *http.Request) {
	menuID, err := pathID(r, "menu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	var in model.SubmenuInput
	if err := h.decode(r, &in); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	sm, err := h.svc.Submenus.Create(r.Context(), menuID, in)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusCreated, sm)
}

func (h *handler) getSubmenu(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	sm, err := h.svc.Submenus.Get(r.Context(), ids[0], ids[1])
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, sm)
}

func (h *handler) updateSubmenu(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	var p model.SubmenuPatch
	if err := h.decode(r, &p); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	sm, err := h.svc.Submenus.Update(r.Context(), ids[0], ids[1], p)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, sm)
}

func (h *handler) deleteSubmenu(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if err := h.svc.Submenus.Delete(r.Context(), ids[0], ids[1]); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, deletedMsg("submenu"))
}

// Dishes

func (h *handler) listDishes(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	p, err := h.page(r)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	dishes, err := h.svc.Dishes.List(r.Context(), ids[0], ids[1], p.Offset, p.Limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, orEmpty(dishes))
}

func (h *handler) createDish(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	var in model.DishInput
	if err := h.decode(r, &in); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	d, err := h.svc.Dishes.Create(r.Context(), ids[0], ids[1], in)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusCreated, d)
}

func (h *handler) getDish(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id", "dish_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	d, err := h.svc.Dishes.Get(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, d)
}

func (h *handler) updateDish(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id", "dish_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	var p model.DishPatch
	if err := h.decode(r, &p); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	d, err := h.svc.Dishes.Update(r.Context(), ids[0], ids[1], ids[2], p)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, d)
}

func (h *handler) deleteDish(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "menu_id", "submenu_id", "dish_id")
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	if err := h.svc.Dishes.Delete(r.Context(), ids[0], ids[1], ids[2]); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, deletedMsg("dish"))
}

// Full listing

func (h *handler) listFull(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(r)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	full, err := h.svc.Full.List(r.Context(), p.Offset, p.Limit)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, orEmpty(full))
}
