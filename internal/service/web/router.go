package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/auctioneer"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/matcher"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/utils"
)

func (s *Server) router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied
			s.log.Debug().Err(err).Msg("websocket upgrade")
			return
		}

		s.keeper.addConn(conn)
		go s.keeper.keep(conn)
	})

	mux.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
		key := entity.AccountKey{
			Account: r.URL.Query().Get("account"),
			Token:   r.URL.Query().Get("token"),
		}
		if key.Account == "" || key.Token == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		at := s.now().UnixMilli()
		balance, ok := s.deps.Balances.Balance(key, at)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.writeJSON(w, Balance{
			Key:     key.String(),
			At:      at,
			Balance: newAmount(balance, s.decimals),
			Deficit: balance.Sign() < 0,
		})
	})

	mux.HandleFunc("/balances", func(w http.ResponseWriter, r *http.Request) {
		if key := r.URL.Query().Get("key"); key != "" {
			balance, at, ok := s.state.get(key)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			s.writeJSON(w, Balance{
				Key:     key,
				At:      at,
				Balance: newAmount(balance, s.decimals),
				Deficit: balance.Sign() < 0,
			})
			return
		}

		balances, at := s.state.all()
		s.writeJSON(w, map[string]any{"at": at, "balances": utils.BigStrings(balances)})
	})

	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		at := s.now().Unix()
		price, err := s.deps.Prices.FairLaunchPrice(at)
		if err != nil {
			s.writeError(w, err)
			return
		}

		n, _ := strconv.Atoi(r.URL.Query().Get("history"))
		if n < 0 {
			n = 0
		}
		out := PriceHistory{
			Price:   Price{Auction: TopicAuction, At: at, Price: newAmount(price, s.decimals)},
			History: make([]Price, 0, n),
		}
		for _, tick := range s.deps.Prices.History(n) {
			out.History = append(out.History, Price{Auction: TopicAuction, At: tick.At, Price: newAmount(tick.Price, s.decimals)})
		}
		s.writeJSON(w, out)
	})

	mux.HandleFunc("/price/reclaim", func(w http.ResponseWriter, r *http.Request) {
		parcel := r.URL.Query().Get("parcel")
		if parcel == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		at := s.now().Unix()
		price, err := s.deps.Prices.ReclaimPrice(parcel, at)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, Price{Auction: parcelPrefix + parcel, At: at, Price: newAmount(price, s.decimals)})
	})

	mux.HandleFunc("/impact", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		req := ImpactRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		impact, err := s.estimate(req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, impact)
	})

	if s.deps.Metrics != nil {
		mux.Handle("/metrics", s.deps.Metrics)
	}

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	js, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(js)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, flowmath.ErrNegativeFlowRate),
		errors.Is(err, flowmath.ErrNegativeUnits):
		status = http.StatusBadRequest
	case errors.Is(err, auctioneer.ErrUnknownAuction),
		errors.Is(err, matcher.ErrUnknownPool),
		errors.Is(err, flowmath.ErrUnknownMember):
		status = http.StatusNotFound
	case errors.Is(err, flowmath.ErrZeroPoolUnits):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}
